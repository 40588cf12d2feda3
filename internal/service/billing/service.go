package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk-api/pkg/errors"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	"github.com/jwalitptl/clinic-desk-api/pkg/metrics"
)

// Fixed bill components. The consultation fee default guards against
// a completed record missing its fee.
const (
	RegistrationFee        = 50.0
	MedicineEstimate       = 200.0
	DefaultConsultationFee = 500.0
)

type BillingService interface {
	GetBill(ctx context.Context, visitID uuid.UUID) (*model.Bill, error)
	MarkPaid(ctx context.Context, visitID uuid.UUID) (*model.Visit, error)
}

type Service struct {
	repo    repository.VisitRepository
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(repo repository.VisitRepository, metrics *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// ComputeBill derives the itemized bill from a visit. Pure function
// of the record.
func ComputeBill(visit *model.Visit) *model.Bill {
	consultationFee := DefaultConsultationFee
	if visit.ConsultationFee != nil {
		consultationFee = *visit.ConsultationFee
	}

	return &model.Bill{
		PatientName:      visit.Name,
		TokenNumber:      visit.TokenNumber,
		Phone:            visit.Phone,
		Date:             visit.VisitDate.Format(model.DateLayout),
		RegistrationFee:  RegistrationFee,
		ConsultationFee:  consultationFee,
		MedicineEstimate: MedicineEstimate,
		Total:            RegistrationFee + consultationFee + MedicineEstimate,
	}
}

func (s *Service) GetBill(ctx context.Context, visitID uuid.UUID) (*model.Bill, error) {
	visit, err := s.repo.Get(ctx, visitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("visit", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get visit: %w", err))
	}

	if !visit.Completed() {
		return nil, apperrors.Conflict("visit is still waiting for the doctor", nil)
	}

	return ComputeBill(visit), nil
}

// MarkPaid records payment for a completed visit. The repository
// guard makes a repeated call a conflict instead of re-stamping the
// payment timestamp.
func (s *Service) MarkPaid(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, visitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("visit", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get visit: %w", err))
	}

	bill := ComputeBill(visit)

	if err := s.repo.MarkPaid(ctx, visitID, bill.Total, time.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("visit", err)
		case errors.Is(err, repository.ErrNotCompleted):
			return nil, apperrors.Conflict("cannot record payment before the prescription is saved", err)
		case errors.Is(err, repository.ErrAlreadyPaid):
			return nil, apperrors.Conflict("bill already paid", err)
		default:
			return nil, apperrors.Internal(fmt.Errorf("failed to mark visit paid: %w", err))
		}
	}

	paid, err := s.repo.Get(ctx, visitID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to reload visit: %w", err))
	}

	s.metrics.PaymentsRecorded.Inc()
	s.logger.Info("bill marked paid", "visit_id", visitID.String(), "total", bill.Total)
	return paid, nil
}
