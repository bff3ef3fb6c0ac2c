// Package core defines service interfaces.
package core

import (
	"context"
	"time"
)

// SampleStore persists sample records.
type SampleStore interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, rec *NewSampleRecord) (*SampleRecord, error)
	Get(ctx context.Context, id int64) (*SampleRecord, error)
	Close() error
}

// SampleCreator creates samples from caller input.
type SampleCreator interface {
	CreateSample(ctx context.Context, req *CreateSampleRequest) (*SampleRecord, error)
}

// DemoService produces the canned outcomes for the synthetic endpoints.
type DemoService interface {
	Hello() string
	Fetch() (string, time.Duration)
	Timeout() time.Duration
	RandomOutcome() Outcome
}

// Transport exposes services over a transport layer.
type Transport interface {
	Start() error
	Shutdown(ctx context.Context) error
}
