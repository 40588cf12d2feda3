package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	"github.com/jwalitptl/clinic-desk-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "billing")

type fakeVisitRepo struct {
	mu     sync.Mutex
	visits map[uuid.UUID]*model.Visit
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: make(map[uuid.UUID]*model.Visit)}
}

func (f *fakeVisitRepo) Register(ctx context.Context, visit *model.Visit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	visit.TokenNumber = len(f.visits) + 1
	visit.Status = model.VisitStatusPending
	cp := *visit
	f.visits[visit.ID] = &cp
	return nil
}

func (f *fakeVisitRepo) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	visit, ok := f.visits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *visit
	return &cp, nil
}

func (f *fakeVisitRepo) ListByDate(ctx context.Context, date time.Time) ([]*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visits []*model.Visit
	for _, v := range f.visits {
		if v.VisitDate.Equal(date) {
			cp := *v
			visits = append(visits, &cp)
		}
	}
	return visits, nil
}

func (f *fakeVisitRepo) Complete(ctx context.Context, id uuid.UUID, clinical model.ClinicalData, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	visit, ok := f.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if visit.Status != model.VisitStatusPending {
		return repository.ErrAlreadyCompleted
	}
	visit.Diagnosis = &clinical.Diagnosis
	visit.Prescription = &clinical.Prescription
	visit.Notes = &clinical.Notes
	visit.ConsultationFee = &clinical.ConsultationFee
	visit.Status = model.VisitStatusCompleted
	visit.CompletedAt = &completedAt
	return nil
}

func (f *fakeVisitRepo) MarkPaid(ctx context.Context, id uuid.UUID, totalBill float64, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	visit, ok := f.visits[id]
	if !ok {
		return repository.ErrNotFound
	}
	if visit.Status != model.VisitStatusCompleted {
		return repository.ErrNotCompleted
	}
	if visit.Paid {
		return repository.ErrAlreadyPaid
	}
	visit.Paid = true
	visit.TotalBill = &totalBill
	visit.PaidAt = &paidAt
	return nil
}

func (f *fakeVisitRepo) addVisit(status model.VisitStatus, fee *float64) *model.Visit {
	f.mu.Lock()
	defer f.mu.Unlock()
	visit := &model.Visit{
		ID:          uuid.New(),
		Name:        "Patient B",
		Phone:       "+911234567890",
		TokenNumber: len(f.visits) + 1,
		VisitDate:   model.Today(),
		Status:      status,
	}
	if status == model.VisitStatusCompleted {
		diagnosis, prescription := "flu", "rest and fluids"
		now := time.Now()
		visit.Diagnosis = &diagnosis
		visit.Prescription = &prescription
		visit.ConsultationFee = fee
		visit.CompletedAt = &now
	}
	f.visits[visit.ID] = visit
	return visit
}

func newTestService(repo repository.VisitRepository) *Service {
	return NewService(repo, testMetrics, logger.NewLogger(nil))
}

func TestComputeBillTotals(t *testing.T) {
	fee := 300.0
	visit := &model.Visit{
		Name:            "Patient B",
		TokenNumber:     2,
		Phone:           "+911234567890",
		VisitDate:       model.Today(),
		Status:          model.VisitStatusCompleted,
		ConsultationFee: &fee,
	}

	bill := ComputeBill(visit)
	assert.Equal(t, 50.0, bill.RegistrationFee)
	assert.Equal(t, 200.0, bill.MedicineEstimate)
	assert.Equal(t, 300.0, bill.ConsultationFee)
	assert.Equal(t, 550.0, bill.Total)

	// Pure: same record, same result.
	again := ComputeBill(visit)
	assert.Equal(t, bill, again)
}

func TestComputeBillDefaultsConsultationFee(t *testing.T) {
	visit := &model.Visit{
		Name:        "Patient A",
		TokenNumber: 1,
		VisitDate:   model.Today(),
		Status:      model.VisitStatusCompleted,
	}

	bill := ComputeBill(visit)
	assert.Equal(t, 500.0, bill.ConsultationFee)
	assert.Equal(t, 750.0, bill.Total)
}

func TestGetBillRequiresCompletedVisit(t *testing.T) {
	repo := newFakeVisitRepo()
	svc := newTestService(repo)

	pending := repo.addVisit(model.VisitStatusPending, nil)
	_, err := svc.GetBill(context.Background(), pending.ID)
	assert.Error(t, err)

	fee := 300.0
	completed := repo.addVisit(model.VisitStatusCompleted, &fee)
	bill, err := svc.GetBill(context.Background(), completed.ID)
	require.NoError(t, err)
	assert.Equal(t, 550.0, bill.Total)
	assert.Equal(t, completed.TokenNumber, bill.TokenNumber)
}

func TestGetBillUnknownVisit(t *testing.T) {
	svc := newTestService(newFakeVisitRepo())
	_, err := svc.GetBill(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestMarkPaidRecordsPayment(t *testing.T) {
	repo := newFakeVisitRepo()
	svc := newTestService(repo)

	fee := 300.0
	visit := repo.addVisit(model.VisitStatusCompleted, &fee)

	paid, err := svc.MarkPaid(context.Background(), visit.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.TotalBill)
	assert.Equal(t, 550.0, *paid.TotalBill)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, model.VisitStatusCompleted, paid.Status)
}

func TestMarkPaidRejectsPendingVisit(t *testing.T) {
	repo := newFakeVisitRepo()
	svc := newTestService(repo)

	pending := repo.addVisit(model.VisitStatusPending, nil)
	_, err := svc.MarkPaid(context.Background(), pending.ID)
	require.Error(t, err)

	// paid implies completed must still hold.
	reloaded, err := repo.Get(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Paid)
}

func TestMarkPaidIsGuardedAgainstDoubleInvocation(t *testing.T) {
	repo := newFakeVisitRepo()
	svc := newTestService(repo)

	fee := 300.0
	visit := repo.addVisit(model.VisitStatusCompleted, &fee)

	first, err := svc.MarkPaid(context.Background(), visit.ID)
	require.NoError(t, err)
	firstPaidAt := *first.PaidAt

	_, err = svc.MarkPaid(context.Background(), visit.ID)
	require.Error(t, err)

	reloaded, err := repo.Get(context.Background(), visit.ID)
	require.NoError(t, err)
	assert.Equal(t, firstPaidAt, *reloaded.PaidAt, "paid_at must not be re-stamped")
}
