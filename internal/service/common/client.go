//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/reminder/internal/api/grpc/codec"
	api "github.com/oshokin/reminder/internal/api/grpc/reminder"
	"github.com/oshokin/reminder/internal/config"
	domain "github.com/oshokin/reminder/internal/domain/alarm"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// api is the AlarmService stub.
	api *api.AlarmServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call when set.
	actor *Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithCallerActor tags every call with the given actor.
func WithCallerActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = &actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errIDRequired is returned when an alarm id is missing.
	errIDRequired = errors.New("alarm id must be provided")
)

// Dial establishes a gRPC connection to the reminder daemon.
// The daemon listens on loopback by default; transport is not encrypted.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codec.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial reminder daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewAlarmServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Schedule schedules an alarm and returns it with its id and timer mode.
func (c *Client) Schedule(ctx context.Context, record domain.Record) (*api.ScheduleResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Schedule(callCtx, &api.ScheduleRequest{Alarm: api.FromRecord(record)})
	if err != nil {
		return nil, fmt.Errorf("schedule alarm: %w", err)
	}

	return resp, nil
}

// Cancel cancels one alarm.
func (c *Client) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Cancel(callCtx, wrapperspb.String(id)); err != nil {
		return fmt.Errorf("cancel alarm: %w", err)
	}

	return nil
}

// CancelAll cancels every alarm.
func (c *Client) CancelAll(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.CancelAll(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("cancel all alarms: %w", err)
	}

	return nil
}

// List returns the persisted alarms as domain records.
func (c *Client) List(ctx context.Context) ([]domain.Record, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.List(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	records := make([]domain.Record, 0, len(resp.Alarms))
	for _, a := range resp.Alarms {
		records = append(records, a.ToRecord())
	}

	return records, nil
}

// CanScheduleExact reports whether exact alarms are permitted.
func (c *Client) CanScheduleExact(ctx context.Context) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CanScheduleExact(callCtx, new(emptypb.Empty))
	if err != nil {
		return false, fmt.Errorf("check exact alarm permission: %w", err)
	}

	return resp.GetValue(), nil
}

// RequestPermission asks the user to allow exact alarms.
func (c *Client) RequestPermission(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.RequestPermission(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("request exact alarm permission: %w", err)
	}

	return nil
}

// StopCurrentAlarm silences the firing alarm.
func (c *Client) StopCurrentAlarm(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.StopCurrentAlarm(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("stop current alarm: %w", err)
	}

	return nil
}

// Status describes the trigger handler.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Status(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return resp, nil
}

// TestAlarm schedules the built-in test alarm.
func (c *Client) TestAlarm(ctx context.Context) (*api.ScheduleResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.TestAlarm(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("schedule test alarm: %w", err)
	}

	return resp, nil
}

// PreviewTone plays the alarm tone on the daemon for d.
// The call deadline is extended by d so the preview is not cut short.
func (c *Client) PreviewTone(ctx context.Context, d time.Duration) error {
	callCtx, cancel := c.callContextFor(ctx, c.callTimeout+d)
	defer cancel()

	if _, err := c.api.PreviewTone(callCtx, &api.PreviewToneRequest{DurationMillis: d.Milliseconds()}); err != nil {
		return fmt.Errorf("preview tone: %w", err)
	}

	return nil
}

// Fire delivers a fired timer to the daemon.
func (c *Client) Fire(ctx context.Context, id, title, body string) error {
	if id == "" {
		return errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Fire(callCtx, &api.FireRequest{ID: id, Title: title, Body: body}); err != nil {
		return fmt.Errorf("fire alarm: %w", err)
	}

	return nil
}

// BootCompleted asks the daemon to restore the schedule for the current timer epoch.
func (c *Client) BootCompleted(ctx context.Context) (*api.BootCompletedResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.BootCompleted(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("boot completed: %w", err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return c.callContextFor(ctx, c.callTimeout)
}

func (c *Client) callContextFor(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if c.actor != nil {
		ctx = WithActor(ctx, *c.actor)
	}

	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
