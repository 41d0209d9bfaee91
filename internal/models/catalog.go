package models

import "time"

// Course is an academic programme.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Batch is an intake cohort identified by its start and end years.
type Batch struct {
	ID        string    `db:"id" json:"id"`
	StartYear int       `db:"start_year" json:"startYear"`
	EndYear   int       `db:"end_year" json:"endYear"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Section is a subdivision of a batch.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	BatchID   string    `db:"batch_id" json:"batch"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
