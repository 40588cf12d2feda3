package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
)

type visitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) repository.VisitRepository {
	return &visitRepository{db: db}
}

// Register inserts the visit and allocates its token number in one
// transaction. The token comes from an atomic upsert on the per-date
// counter row, so two concurrent registrations can never observe the
// same value. A unique index on (visit_date, token_number) backstops
// the invariant.
func (r *visitRepository) Register(ctx context.Context, visit *model.Visit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tokenQuery := `
		INSERT INTO daily_tokens (visit_date, last_token)
		VALUES ($1, 1)
		ON CONFLICT (visit_date)
		DO UPDATE SET last_token = daily_tokens.last_token + 1
		RETURNING last_token
	`
	if err := tx.GetContext(ctx, &visit.TokenNumber, tokenQuery, visit.VisitDate); err != nil {
		return fmt.Errorf("failed to allocate token number: %w", err)
	}

	insertQuery := `
		INSERT INTO visits (
			id, name, age, gender, phone, address, symptoms,
			token_number, visit_date, status, paid, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	visit.Status = model.VisitStatusPending
	visit.Paid = false
	visit.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx, insertQuery,
		visit.ID,
		visit.Name,
		visit.Age,
		visit.Gender,
		visit.Phone,
		visit.Address,
		visit.Symptoms,
		visit.TokenNumber,
		visit.VisitDate,
		visit.Status,
		visit.Paid,
		visit.CreatedAt,
		visit.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE id = $1`
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

func (r *visitRepository) ListByDate(ctx context.Context, date time.Time) ([]*model.Visit, error) {
	query := `SELECT * FROM visits WHERE visit_date = $1::date`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, date); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

// Complete performs the pending to completed transition. The status
// guard in the WHERE clause keeps the clinical fields write-once.
func (r *visitRepository) Complete(ctx context.Context, id uuid.UUID, clinical model.ClinicalData, completedAt time.Time) error {
	query := `
		UPDATE visits
		SET diagnosis = $1, prescription = $2, notes = $3,
		    consultation_fee = $4, status = $5, completed_at = $6
		WHERE id = $7 AND status = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		clinical.Diagnosis,
		clinical.Prescription,
		clinical.Notes,
		clinical.ConsultationFee,
		model.VisitStatusCompleted,
		completedAt,
		id,
		model.VisitStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to complete visit: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return repository.ErrAlreadyCompleted
	}
	return nil
}

// MarkPaid records payment. The guard rejects pending visits and
// repeated payments, so paid_at is never re-stamped.
func (r *visitRepository) MarkPaid(ctx context.Context, id uuid.UUID, totalBill float64, paidAt time.Time) error {
	query := `
		UPDATE visits
		SET paid = TRUE, total_bill = $1, paid_at = $2
		WHERE id = $3 AND status = $4 AND paid = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, totalBill, paidAt, id, model.VisitStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark visit paid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		visit, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if visit.Paid {
			return repository.ErrAlreadyPaid
		}
		return repository.ErrNotCompleted
	}
	return nil
}
