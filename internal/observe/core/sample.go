// Package core provides sample record creation.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"observe/internal/observe/observability"
)

// SampleService derives sample names and persists records.
type SampleService struct {
	store   SampleStore
	tracer  observability.Tracer
	metrics observability.Metrics
}

// NewSampleService constructs a SampleService.
func NewSampleService(store SampleStore, tracer observability.Tracer, metrics observability.Metrics) *SampleService {
	if tracer == nil {
		tracer = observability.NoopTracer{}
	}
	return &SampleService{store: store, tracer: tracer, metrics: metrics}
}

// CreateSample counts existing records and stores a new one named
// "<name>-<count+1>". Count and insert are separate store calls, so
// concurrent callers may derive the same name.
func (s *SampleService) CreateSample(ctx context.Context, req *CreateSampleRequest) (*SampleRecord, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("sample store is not configured")
	}
	if req == nil {
		return nil, ErrInvalidInput
	}
	ctx, span := s.tracer.StartSpan(ctx, "sample.create")
	defer span.End()

	value, err := CoerceSampleValue(req.Value)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	name := DeriveSampleName(req.Name, count)
	rec, err := s.store.Create(ctx, &NewSampleRecord{Name: name, Value: value})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("sample.id", strconv.FormatInt(rec.ID, 10))
	span.SetAttribute("sample.name", rec.Name)
	if s.metrics != nil {
		s.metrics.IncSampleCreated()
	}
	return rec, nil
}

// DeriveSampleName appends the next ordinal to a base name.
func DeriveSampleName(base string, existing int64) string {
	return fmt.Sprintf("%s-%d", base, existing+1)
}

// CoerceSampleValue converts a loosely typed value into an integer column value.
// Integers, integral-looking strings, booleans and floats (truncated toward zero)
// are accepted; anything else, including null, is rejected.
func CoerceSampleValue(v any) (int64, error) {
	switch value := v.(type) {
	case nil:
		return 0, Wrap(CodeInvalidValue, "sample value is required", nil)
	case int:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	case float64:
		return truncateFloat(value)
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n, nil
		}
		f, err := value.Float64()
		if err != nil {
			return 0, Wrap(CodeInvalidValue, "sample value is not a number", err)
		}
		return truncateFloat(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, Wrap(CodeInvalidValue, "sample value is not an integer", err)
		}
		return n, nil
	default:
		return 0, Wrap(CodeInvalidValue, fmt.Sprintf("unsupported sample value type %T", v), nil)
	}
}

func truncateFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, Wrap(CodeInvalidValue, "sample value out of range", nil)
	}
	return int64(f), nil
}
