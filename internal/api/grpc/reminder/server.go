package reminder

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	// Registers the codec the client selects with CallContentSubtype.
	_ "github.com/oshokin/reminder/internal/api/grpc/codec"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/timer"
	"github.com/oshokin/reminder/internal/service/scheduler"
	"github.com/oshokin/reminder/internal/service/trigger"
)

// Service abstracts the daemon operations the transport layer depends on.
type Service interface {
	Schedule(ctx context.Context, record domain.Record) (timer.Mode, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	List(ctx context.Context) ([]domain.Record, error)
	CanScheduleExact(ctx context.Context) bool
	RequestPermission(ctx context.Context)
	StopCurrentAlarm(ctx context.Context)
	Status(ctx context.Context) trigger.Snapshot
	TestAlarm(ctx context.Context) (domain.Record, timer.Mode, error)
	PreviewTone(ctx context.Context, d time.Duration) error
	Fire(ctx context.Context, event trigger.Event)
	BootCompleted(ctx context.Context) (restored bool, kept int, err error)
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the daemon operations.
	service Service
}

var _ AlarmServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Schedule schedules an alarm, generating an id when none is given.
func (s *Server) Schedule(ctx context.Context, req *ScheduleRequest) (*ScheduleResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	record := req.Alarm.ToRecord()
	if record.ID == "" {
		record.ID = domain.NewID()
	}

	mode, err := s.service.Schedule(ctx, record)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &ScheduleResponse{
		Alarm: FromRecord(record),
		Mode:  mode.String(),
	}, nil
}

// Cancel cancels one alarm.
func (s *Server) Cancel(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	if err := s.service.Cancel(ctx, req.GetValue()); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// CancelAll cancels every alarm.
func (s *Server) CancelAll(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.CancelAll(ctx); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// List returns the persisted alarms.
func (s *Server) List(ctx context.Context, _ *emptypb.Empty) (*ListResponse, error) {
	records, err := s.service.List(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &ListResponse{Alarms: FromRecords(records)}, nil
}

// CanScheduleExact reports whether exact alarms are permitted.
func (s *Server) CanScheduleExact(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.service.CanScheduleExact(ctx)), nil
}

// RequestPermission asks the user to allow exact alarms.
func (s *Server) RequestPermission(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.service.RequestPermission(ctx)

	return new(emptypb.Empty), nil
}

// StopCurrentAlarm silences the firing alarm.
func (s *Server) StopCurrentAlarm(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.service.StopCurrentAlarm(ctx)

	return new(emptypb.Empty), nil
}

// Status describes the trigger handler.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*StatusResponse, error) {
	return FromSnapshot(s.service.Status(ctx)), nil
}

// TestAlarm schedules the built-in test alarm.
func (s *Server) TestAlarm(ctx context.Context, _ *emptypb.Empty) (*ScheduleResponse, error) {
	record, mode, err := s.service.TestAlarm(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &ScheduleResponse{
		Alarm: FromRecord(record),
		Mode:  mode.String(),
	}, nil
}

// PreviewTone plays the alarm tone.
func (s *Server) PreviewTone(ctx context.Context, req *PreviewToneRequest) (*emptypb.Empty, error) {
	if req == nil || req.DurationMillis <= 0 {
		return nil, status.Error(codes.InvalidArgument, "duration must be positive")
	}

	if err := s.service.PreviewTone(ctx, time.Duration(req.DurationMillis)*time.Millisecond); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// Fire delivers a fired timer to the trigger handler.
func (s *Server) Fire(ctx context.Context, req *FireRequest) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	s.service.Fire(ctx, req.ToEvent())

	return new(emptypb.Empty), nil
}

// BootCompleted restores the schedule once per timer epoch.
func (s *Server) BootCompleted(ctx context.Context, _ *emptypb.Empty) (*BootCompletedResponse, error) {
	restored, kept, err := s.service.BootCompleted(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &BootCompletedResponse{Restored: restored, Kept: kept}, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	var code codes.Code

	switch {
	case errors.Is(err, scheduler.ErrEmptyID):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrContextUnavailable):
		code = codes.Unavailable
	case errors.Is(err, domain.ErrPermissionDenied):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrResourceUnavailable):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}

	return status.Error(code, err.Error())
}
