// Package core defines the sample record model and request types.
package core

import (
	"fmt"
	"time"
)

// SampleRecord is a persisted sample row.
type SampleRecord struct {
	ID        int64
	Name      string
	Value     int64
	UpdatedAt time.Time
}

// String renders the record as "name: value".
func (r *SampleRecord) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s: %d", r.Name, r.Value)
}

// CreateSampleRequest carries caller input for sample creation.
// Value is kept loosely typed; the store decides whether it fits an integer column.
type CreateSampleRequest struct {
	Name  string
	Value any
}

// NewSampleRecord is the fully derived row handed to a SampleStore.
type NewSampleRecord struct {
	Name  string
	Value int64
}

// Outcome is a canned response chosen by a demo endpoint.
type Outcome struct {
	Status int
	Body   any
}
