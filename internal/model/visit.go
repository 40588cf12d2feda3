package model

import (
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitStatusPending   VisitStatus = "pending"
	VisitStatusCompleted VisitStatus = "completed"
)

// Visit is one patient's registered visit: the unit of state in the
// queue workflow. Registration fields are written once by the front
// desk. The clinical group (diagnosis, prescription, notes,
// consultation fee, completed_at) is written once, together, when a
// doctor completes the visit. The payment group (paid, total_bill,
// paid_at) is written once by the front desk and only on a completed
// visit.
type Visit struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Age         int         `db:"age" json:"age"`
	Gender      string      `db:"gender" json:"gender"`
	Phone       string      `db:"phone" json:"phone"`
	Address     string      `db:"address" json:"address"`
	Symptoms    string      `db:"symptoms" json:"symptoms"`
	TokenNumber int         `db:"token_number" json:"token_number"`
	VisitDate   time.Time   `db:"visit_date" json:"visit_date"`
	Status      VisitStatus `db:"status" json:"status"`

	Diagnosis       *string  `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription    *string  `db:"prescription" json:"prescription,omitempty"`
	Notes           *string  `db:"notes" json:"notes,omitempty"`
	ConsultationFee *float64 `db:"consultation_fee" json:"consultation_fee,omitempty"`

	Paid      bool     `db:"paid" json:"paid"`
	TotalBill *float64 `db:"total_bill" json:"total_bill,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"created_by"`
}

// Completed reports whether the doctor has finished this visit.
func (v *Visit) Completed() bool {
	return v.Status == VisitStatusCompleted
}

type RegisterVisitRequest struct {
	Name     string `json:"name" binding:"required"`
	Age      int    `json:"age" binding:"required,gt=0"`
	Gender   string `json:"gender" binding:"required"`
	Phone    string `json:"phone" binding:"required,phone"`
	Address  string `json:"address" binding:"required"`
	Symptoms string `json:"symptoms" binding:"required"`
}

type PrescriptionRequest struct {
	Diagnosis       string  `json:"diagnosis" binding:"required"`
	Prescription    string  `json:"prescription" binding:"required"`
	Notes           string  `json:"notes"`
	ConsultationFee float64 `json:"consultation_fee" binding:"required,gt=0"`
}

// ClinicalData is the field group written at the pending to completed
// transition.
type ClinicalData struct {
	Diagnosis       string
	Prescription    string
	Notes           string
	ConsultationFee float64
}

// DoctorCounters are the doctor dashboard aggregates.
type DoctorCounters struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// DeskCounters are the front-desk dashboard aggregates. PendingBills
// counts completed but unpaid visits.
type DeskCounters struct {
	Total        int `json:"total"`
	TodayTokens  int `json:"today_tokens"`
	PendingBills int `json:"pending_bills"`
}

// Queue is today's visit list ordered by token number plus the
// counter set for the requesting role.
type Queue struct {
	Visits []*Visit        `json:"visits"`
	Doctor *DoctorCounters `json:"doctor_counters,omitempty"`
	Desk   *DeskCounters   `json:"desk_counters,omitempty"`
}

// Bill is the itemized breakdown derived from a completed visit.
type Bill struct {
	PatientName      string  `json:"patient_name"`
	TokenNumber      int     `json:"token_number"`
	Phone            string  `json:"phone"`
	Date             string  `json:"date"`
	RegistrationFee  float64 `json:"registration_fee"`
	ConsultationFee  float64 `json:"consultation_fee"`
	MedicineEstimate float64 `json:"medicine_estimate"`
	Total            float64 `json:"total"`
}
