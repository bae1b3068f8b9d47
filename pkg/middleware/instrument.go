package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/userpages/pkg/model"
)

// Operation names used for spans and the operation metric label.
const (
	OpFetchProfile  = "profile.fetch"
	OpUpdateProfile = "profile.update"
	OpFetchUsers    = "users.fetch"
)

// Instrumenter wraps data collaborators with spans and call metrics.
type Instrumenter struct {
	metrics *Metrics
	tracer  trace.Tracer
}

// NewInstrumenter creates an Instrumenter. m may be nil.
func NewInstrumenter(m *Metrics, tracerName string) *Instrumenter {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	return &Instrumenter{metrics: m, tracer: otel.Tracer(tracerName)}
}

// ProfileService returns svc with every call traced and timed.
func (i *Instrumenter) ProfileService(svc model.ProfileService) model.ProfileService {
	return &profileService{inst: i, next: svc}
}

// UserDirectory returns dir with every call traced and timed.
func (i *Instrumenter) UserDirectory(dir model.UserDirectory) model.UserDirectory {
	return &userDirectory{inst: i, next: dir}
}

// observe runs fn inside a client span and records the call.
func (i *Instrumenter) observe(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	i.metrics.RecordCall(op, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

type profileService struct {
	inst *Instrumenter
	next model.ProfileService
}

func (s *profileService) FetchUserProfile(ctx context.Context) (model.UserProfile, error) {
	var p model.UserProfile
	err := s.inst.observe(ctx, OpFetchProfile, nil, func(ctx context.Context) error {
		var err error
		p, err = s.next.FetchUserProfile(ctx)
		return err
	})
	return p, err
}

func (s *profileService) UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) (model.ProfilePatch, error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("userpages.patch.name", patch.Name != nil),
		attribute.Bool("userpages.patch.email", patch.Email != nil),
	}
	var echoed model.ProfilePatch
	err := s.inst.observe(ctx, OpUpdateProfile, attrs, func(ctx context.Context) error {
		var err error
		echoed, err = s.next.UpdateUserProfile(ctx, patch)
		return err
	})
	return echoed, err
}

type userDirectory struct {
	inst *Instrumenter
	next model.UserDirectory
}

func (d *userDirectory) FetchUsers(ctx context.Context, page, perPage int) (model.UserPage, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("userpages.page", page),
		attribute.Int("userpages.per_page", perPage),
	}
	var result model.UserPage
	err := d.inst.observe(ctx, OpFetchUsers, attrs, func(ctx context.Context) error {
		var err error
		result, err = d.next.FetchUsers(ctx, page, perPage)
		return err
	})
	return result, err
}
