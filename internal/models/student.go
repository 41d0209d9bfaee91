package models

import (
	"time"

	"github.com/lib/pq"
)

// Student is the denormalized student record the fee service reads and keeps
// back-references on.
type Student struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Email         string         `db:"email" json:"email"`
	CourseID      string         `db:"course_id" json:"course"`
	BatchID       string         `db:"batch_id" json:"batch"`
	SectionID     *string        `db:"section_id" json:"section,omitempty"`
	Semester      *int           `db:"semester" json:"semester,omitempty"`
	FeePaymentIDs pq.StringArray `db:"fee_payment_ids" json:"feePayments"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}
