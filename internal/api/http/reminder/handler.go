package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	domain "github.com/oshokin/reminder/internal/domain/alarm"
	"github.com/oshokin/reminder/internal/logger"
	"github.com/oshokin/reminder/internal/platform/timer"
	"github.com/oshokin/reminder/internal/service/scheduler"
	"github.com/oshokin/reminder/internal/service/trigger"
)

// Service abstracts the daemon operations served over HTTP.
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
}

// alarmJSON is the HTTP form of an alarm.
type alarmJSON struct {
	// ID is the alarm id; generated when empty on create.
	ID string `json:"id"`
	// TriggerAt is the fire time in epoch milliseconds.
	TriggerAt int64 `json:"triggerAt"`
	// Title is shown when the alarm fires.
	Title string `json:"title"`
	// Body is shown under the title.
	Body string `json:"body"`
}

// scheduledJSON is returned by the create endpoints.
type scheduledJSON struct {
	// Alarm is the persisted alarm.
	Alarm alarmJSON `json:"alarm"`
	// Mode is "exact" or "inexact".
	Mode string `json:"mode"`
}

// statusJSON describes the trigger handler.
type statusJSON struct {
	// State is "idle" or "firing".
	State string `json:"state"`
	// Alarm is the firing alarm.
	Alarm *alarmJSON `json:"alarm,omitempty"`
	// StartedAt is when the alarm started firing, in epoch milliseconds.
	StartedAt int64 `json:"startedAt,omitempty"`
	// StopsAt is when the alarm stops by itself, in epoch milliseconds.
	StopsAt int64 `json:"stopsAt,omitempty"`
	// Playing reports whether the sound is on.
	Playing bool `json:"playing"`
}

// permissionJSON reports the exact alarm permission.
type permissionJSON struct {
	// Exact is true when exact alarms may be scheduled.
	Exact bool `json:"exact"`
}

// errorJSON is the body of every error response.
type errorJSON struct {
	// Error is the error message.
	Error string `json:"error"`
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// jsonMediaType is the only media type accepted on POST.
const jsonMediaType = "application/json"

var (
	// errBadBody is returned for undecodable request bodies.
	errBadBody = errors.New("malformed request body")
	// errNotJSON is returned for POST requests not declared as JSON.
	errNotJSON = errors.New("content type must be " + jsonMediaType)
)

// handler serves the routes.
type handler struct {
	// service provides the daemon operations.
	service Service
}

// NewHandler builds the router with request ids and request logging.
// Cross-origin requests are answered only for allowedOrigins; with none,
// browsers get no CORS headers at all.
func NewHandler(ctx context.Context, service Service, allowedOrigins []string) http.Handler {
	h := &handler{service: service}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger.WithName(ctx, "http")))

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler)
	}

	r.Use(requireJSON)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/alarms", h.list)
		r.Post("/alarms", h.schedule)
		r.Delete("/alarms", h.cancelAll)
		r.Post("/alarms/test", h.testAlarm)
		r.Delete("/alarms/{id}", h.cancel)

		r.Get("/alarm", h.status)
		r.Post("/alarm/stop", h.stop)

		r.Get("/permission", h.permission)
		r.Post("/permission/request", h.requestPermission)
	})

	return r
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	alarms := make([]alarmJSON, 0, len(records))
	for _, record := range records {
		alarms = append(alarms, fromRecord(record))
	}

	writeJSON(w, http.StatusOK, alarms)
}

func (h *handler) schedule(w http.ResponseWriter, r *http.Request) {
	var body alarmJSON

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: errBadBody.Error()})

		return
	}

	record := domain.Record{
		ID:        body.ID,
		TriggerAt: body.TriggerAt,
		Title:     body.Title,
		Body:      body.Body,
	}

	if record.ID == "" {
		record.ID = domain.NewID()
	}

	mode, err := h.service.Schedule(r.Context(), record)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusCreated, scheduledJSON{Alarm: fromRecord(record), Mode: mode.String()})
}

func (h *handler) testAlarm(w http.ResponseWriter, r *http.Request) {
	record, mode, err := h.service.TestAlarm(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusCreated, scheduledJSON{Alarm: fromRecord(record), Mode: mode.String()})
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) cancelAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelAll(r.Context()); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Status(r.Context())

	resp := statusJSON{
		State:   snapshot.State.String(),
		Playing: snapshot.Playing,
	}

	if snapshot.State == trigger.StateFiring {
		resp.Alarm = &alarmJSON{ID: snapshot.Alarm.ID, Title: snapshot.Alarm.Title, Body: snapshot.Alarm.Body}
		resp.StartedAt = domain.Millis(snapshot.StartedAt)

		if !snapshot.StopsAt.IsZero() {
			resp.StopsAt = domain.Millis(snapshot.StopsAt)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	h.service.StopCurrentAlarm(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) permission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissionJSON{Exact: h.service.CanScheduleExact(r.Context())})
}

func (h *handler) requestPermission(w http.ResponseWriter, r *http.Request) {
	h.service.RequestPermission(r.Context())

	w.WriteHeader(http.StatusAccepted)
}

func fromRecord(record domain.Record) alarmJSON {
	return alarmJSON{
		ID:        record.ID,
		TriggerAt: record.TriggerAt,
		Title:     record.Title,
		Body:      record.Body,
	}
}

// writeError maps domain errors to HTTP status codes.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, scheduler.ErrEmptyID):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrContextUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPermissionDenied):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrResourceUnavailable):
		code = http.StatusConflict
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)
		writeJSON(w, code, errorJSON{Error: "internal error"})

		return
	}

	writeJSON(w, code, errorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(v) //nolint:errchkjson // The status line is already sent.
}

// requireJSON rejects POST requests that are not declared as JSON, so plain
// cross-site form posts never reach the handlers.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != jsonMediaType {
				writeJSON(w, http.StatusUnsupportedMediaType, errorJSON{Error: errNotJSON.Error()})

				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with its status, size and duration.
func requestLogger(ctx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			defer func() {
				logger.DebugKV(ctx, "Handled request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(started),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(logger.ToContext(r.Context(), logger.FromContext(ctx))))
		})
	}
}
