package visit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk-api/pkg/errors"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	"github.com/jwalitptl/clinic-desk-api/pkg/metrics"
)

type VisitService interface {
	Register(ctx context.Context, req *model.RegisterVisitRequest, createdBy uuid.UUID) (*model.Visit, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	SavePrescription(ctx context.Context, id uuid.UUID, req *model.PrescriptionRequest) (*model.Visit, error)
	Queue(ctx context.Context, role model.Role) (*model.Queue, error)
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

// Register creates today's next visit. The token number is allocated
// by the repository inside the insert transaction.
func (s *Service) Register(ctx context.Context, req *model.RegisterVisitRequest, createdBy uuid.UUID) (*model.Visit, error) {
	visit := &model.Visit{
		ID:        uuid.New(),
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		Phone:     req.Phone,
		Address:   req.Address,
		Symptoms:  req.Symptoms,
		VisitDate: model.Today(),
		CreatedBy: createdBy,
	}

	if err := s.repo.Register(ctx, visit); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to register visit: %w", err))
	}

	s.metrics.VisitsRegistered.Inc()
	s.logger.Info("patient registered",
		"visit_id", visit.ID.String(),
		"token_number", visit.TokenNumber)
	return visit, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("visit", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get visit: %w", err))
	}
	return visit, nil
}

// SavePrescription performs the pending to completed transition,
// writing the clinical field group exactly once. A repeated save is a
// conflict and leaves the record unchanged.
func (s *Service) SavePrescription(ctx context.Context, id uuid.UUID, req *model.PrescriptionRequest) (*model.Visit, error) {
	clinical := model.ClinicalData{
		Diagnosis:       req.Diagnosis,
		Prescription:    req.Prescription,
		Notes:           req.Notes,
		ConsultationFee: req.ConsultationFee,
	}

	if err := s.repo.Complete(ctx, id, clinical, time.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("visit", err)
		case errors.Is(err, repository.ErrAlreadyCompleted):
			return nil, apperrors.Conflict("prescription already saved for this visit", err)
		default:
			return nil, apperrors.Internal(fmt.Errorf("failed to save prescription: %w", err))
		}
	}

	visit, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to reload visit: %w", err))
	}

	s.metrics.PrescriptionsSaved.Inc()
	s.logger.Info("prescription saved", "visit_id", id.String())
	return visit, nil
}

// Queue projects today's visit list ordered ascending by token number
// with the counter set for the requesting role. Sorting happens here
// rather than in the store so the projection does not depend on a
// backend index.
func (s *Service) Queue(ctx context.Context, role model.Role) (*model.Queue, error) {
	visits, err := s.repo.ListByDate(ctx, model.Today())
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to load queue: %w", err))
	}

	sort.Slice(visits, func(i, j int) bool {
		return visits[i].TokenNumber < visits[j].TokenNumber
	})

	queue := &model.Queue{Visits: visits}

	switch role {
	case model.RoleDoctor:
		counters := &model.DoctorCounters{Total: len(visits)}
		for _, v := range visits {
			if v.Completed() {
				counters.Completed++
			} else {
				counters.Pending++
			}
		}
		queue.Doctor = counters
		s.metrics.QueueProjectionSize.WithLabelValues("pending").Set(float64(counters.Pending))
		s.metrics.QueueProjectionSize.WithLabelValues("completed").Set(float64(counters.Completed))
	case model.RoleReceptionist:
		counters := &model.DeskCounters{
			Total:       len(visits),
			TodayTokens: len(visits),
		}
		for _, v := range visits {
			if v.Completed() && !v.Paid {
				counters.PendingBills++
			}
		}
		queue.Desk = counters
	default:
		return nil, apperrors.Forbidden("unknown role", nil)
	}

	return queue, nil
}
