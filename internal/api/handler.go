// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wabbit/wabbit/internal/logging"
	"github.com/wabbit/wabbit/internal/observability"
	"github.com/wabbit/wabbit/pkg/errutil"
)

const maxBodyBytes = 1 << 20

var tracer = otel.Tracer("wabbit/api")

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration // Max-Age; zero gives a browser-session cookie
	Secure bool
}

type request struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables"`
}

// ErrorBody is one entry of a response's errors list.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type response struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []ErrorBody    `json:"errors,omitempty"`
}

// Handler executes operations posted to /graphql.
type Handler struct {
	ops     map[string]Operation
	schemas *Schemas
	cookie  CookieConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewHandler creates a handler serving ops. metrics may be nil.
func NewHandler(ops []Operation, cookie CookieConfig, metrics *observability.Metrics, logger *slog.Logger) (*Handler, error) {
	if cookie.Name == "" {
		return nil, oops.Code("API_CONFIG_INVALID").Errorf("cookie name is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	schemas, err := CompileSchemas(ops)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Operation, len(ops))
	for _, op := range ops {
		if _, dup := byName[op.Name]; dup {
			return nil, oops.Code("API_CONFIG_INVALID").With("operation", op.Name).Errorf("duplicate operation")
		}
		byName[op.Name] = op
	}

	return &Handler{
		ops:     byName,
		schemas: schemas,
		cookie:  cookie,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// ServeHTTP runs one operation.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, ErrorBody{Message: "malformed request body", Code: "BAD_REQUEST"})
		return
	}

	op, ok := h.ops[req.Operation]
	if !ok {
		writeErrors(w, http.StatusBadRequest, ErrorBody{
			Message: "unknown operation " + req.Operation,
			Code:    "UNKNOWN_OPERATION",
		})
		return
	}

	if err := h.schemas.Validate(op.Name, req.Variables); err != nil {
		writeErrors(w, http.StatusBadRequest, ErrorBody{Message: err.Error(), Code: errutil.Code(err)})
		return
	}
	vars, err := op.decode(req.Variables)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, ErrorBody{Message: err.Error(), Code: errutil.Code(err)})
		return
	}

	rc := &RequestContext{RequestID: logging.RequestIDFromContext(ctx)}
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		rc.SessionToken = c.Value
	}

	result, err := h.execute(ctx, op, rc, vars)
	if err != nil {
		errutil.LogErrorContext(ctx, h.logger, "operation failed", oops.With("operation", op.Name).Wrap(err))
		code := errutil.Code(err)
		if code == "" {
			code = "INTERNAL"
		}
		writeErrors(w, http.StatusInternalServerError, ErrorBody{Message: "internal server error", Code: code})
		return
	}

	h.writeCookie(w, rc)
	writeJSON(w, http.StatusOK, response{Data: map[string]any{op.Name: result}})
}

// execute runs op inside a trace span and records its outcome.
func (h *Handler) execute(ctx context.Context, op Operation, rc *RequestContext, vars any) (any, error) {
	ctx, span := tracer.Start(ctx, "api.operation",
		trace.WithAttributes(
			attribute.String("operation.name", op.Name),
			attribute.String("request.id", rc.RequestID),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := op.run(ctx, rc, vars)
	status := outcome(result, err)
	h.metrics.ObserveDuration(op.Name, time.Since(start))
	h.metrics.RecordAuth(op.Name, status)

	span.SetAttributes(attribute.String("operation.outcome", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (h *Handler) writeCookie(w http.ResponseWriter, rc *RequestContext) {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookie.Secure,
	}
	switch {
	case rc.newSession != "":
		c.Value = rc.newSession
		c.MaxAge = int(h.cookie.TTL / time.Second)
	case rc.clearSession:
		c.MaxAge = -1
	default:
		return
	}
	http.SetCookie(w, c)
}

func writeErrors(w http.ResponseWriter, status int, errs ...ErrorBody) {
	writeJSON(w, status, response{Errors: errs})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // client may disconnect
}
