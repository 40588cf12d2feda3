package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
)

// Sentinel errors the services translate into user-facing failures.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrAlreadyCompleted = errors.New("visit already completed")
	ErrNotCompleted     = errors.New("visit not completed")
	ErrAlreadyPaid      = errors.New("visit already paid")
)

// All repository interfaces in one file
type (
	// UserRepository handles staff accounts
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	// VisitRepository handles the per-day visit queue. Register
	// allocates the visit's token number atomically with the insert.
	VisitRepository interface {
		Register(ctx context.Context, visit *model.Visit) error
		Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
		ListByDate(ctx context.Context, date time.Time) ([]*model.Visit, error)
		Complete(ctx context.Context, id uuid.UUID, clinical model.ClinicalData, completedAt time.Time) error
		MarkPaid(ctx context.Context, id uuid.UUID, totalBill float64, paidAt time.Time) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
