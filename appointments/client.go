package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/medistream/go-session-middleware/internal/requestid"
)

const (
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 10 * time.Second

	// TracerName identifies spans emitted by the client.
	TracerName = "github.com/medistream/go-session-middleware/appointments"

	// Metric names emitted by the client.
	MetricRequests        = "appointment_client_requests_total"
	MetricRequestDuration = "appointment_client_request_duration_seconds"

	collection = "appointments"
)

// ErrEmptyID is returned when an operation addressing one appointment is
// given an empty id.
var ErrEmptyID = errors.New("appointments: id must not be empty")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives one observation per backend call.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
}

// Client calls the backend appointment API. A Client is immutable and safe
// for concurrent use; WithToken derives a copy bound to one caller.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	token      string
	logger     Logger
	metrics    Metrics
	tracer     oteltrace.Tracer
}

// New builds a Client.
//
// Required options:
//   - WithBaseURL: backend base URL
func New(opts ...Option) (*Client, error) {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.baseURL == nil {
		return nil, errors.New("base URL is required (use WithBaseURL)")
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}
	return c, nil
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Create creates an appointment. The backend assigns the id and timestamps
// and starts it in PENDING.
func (c *Client) Create(ctx context.Context, a Appointment) (*Result, error) {
	var res Result
	if err := c.do(ctx, "create", http.MethodPost, []string{collection}, nil, a, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns one page of the full collection.
func (c *Client) List(ctx context.Context, p Paging) (*List, error) {
	q := url.Values{}
	setInt(q, "page", p.Page)
	setInt(q, "limit", p.Limit)

	var res List
	if err := c.do(ctx, "list", http.MethodGet, []string{collection}, q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Get returns a single appointment.
func (c *Client) Get(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	var res Result
	if err := c.do(ctx, "get", http.MethodGet, []string{collection, url.PathEscape(id)}, nil, nil, &res); err != nil {
		return nil, err
	}
	if res.Appointment == nil {
		return nil, fmt.Errorf("appointments: response for %q carried no appointment", id)
	}
	return res.Appointment, nil
}

// Update changes the mutable fields of an appointment.
func (c *Client) Update(ctx context.Context, id string, u Update) (*Result, error) {
	return c.mutate(ctx, "update", http.MethodPut, id, "", u)
}

// Reschedule changes the date and duration of an appointment.
func (c *Client) Reschedule(ctx context.Context, id string, r Reschedule) (*Result, error) {
	return c.mutate(ctx, "reschedule", http.MethodPut, id, "reschedule", r)
}

// Cancel moves an appointment to CANCELLED. The call is issued even when the
// appointment is already cancelled.
func (c *Client) Cancel(ctx context.Context, id string) (*Result, error) {
	return c.mutate(ctx, "cancel", http.MethodPost, id, "cancel", nil)
}

// ChangeStatus sets an appointment's status to s.
func (c *Client) ChangeStatus(ctx context.Context, id string, s Status) (*Result, error) {
	body := struct {
		Status Status `json:"status"`
	}{s}
	return c.mutate(ctx, "change_status", http.MethodPost, id, "status", body)
}

// Delete removes an appointment.
func (c *Client) Delete(ctx context.Context, id string) (*Result, error) {
	return c.mutate(ctx, "delete", http.MethodDelete, id, "", nil)
}

// ListByDoctor returns the appointments of one doctor.
func (c *Client) ListByDoctor(ctx context.Context, doctorID string, w Window) (*List, error) {
	return c.listScoped(ctx, "list_by_doctor", "doctor", doctorID, w)
}

// ListByPatient returns the appointments of one patient.
func (c *Client) ListByPatient(ctx context.Context, patientID string, w Window) (*List, error) {
	return c.listScoped(ctx, "list_by_patient", "patient", patientID, w)
}

func (c *Client) mutate(ctx context.Context, op, method, id, action string, body any) (*Result, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	segments := []string{collection, url.PathEscape(id)}
	if action != "" {
		segments = append(segments, action)
	}

	var res Result
	if err := c.do(ctx, op, method, segments, nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) listScoped(ctx context.Context, op, scope, ownerID string, w Window) (*List, error) {
	if ownerID == "" {
		return nil, ErrEmptyID
	}
	q := url.Values{}
	setInt(q, "limit", w.Limit)
	setInt(q, "offset", w.Offset)

	var res List
	if err := c.do(ctx, op, http.MethodGet, []string{collection, scope, url.PathEscape(ownerID)}, q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do performs one backend call. segments are already path-escaped. A 2xx body
// is decoded into out; any other status becomes an *APIError. Transport errors
// are returned as is.
func (c *Client) do(ctx context.Context, op, method string, segments []string, params url.Values, in, out any) (err error) {
	u := c.baseURL.JoinPath(segments...)
	if len(params) != 0 {
		u.RawQuery = params.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "appointments."+op, oteltrace.WithSpanKind(oteltrace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", u.Path),
	)

	start := time.Now()
	status := 0
	defer func() {
		c.record(op, status, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("appointments: encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	_, rid := requestid.Ensure(ctx)
	req.Header.Set(requestid.Header, rid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("appointment backend call failed",
				"op", op,
				"method", method,
				"path", u.Path,
				"request_id", rid,
				"error", err)
		}
		return err
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("appointments: reading %s response: %w", op, err)
	}

	if status < 200 || status > 299 {
		apiErr := newAPIError(method, u.Path, status, respBody)
		if c.logger != nil {
			c.logger.Debug("appointment backend returned an error",
				"op", op,
				"status", status,
				"message", apiErr.Message,
				"request_id", rid)
		}
		return apiErr
	}

	if c.logger != nil {
		c.logger.Debug("appointment backend call succeeded",
			"op", op,
			"status", status,
			"request_id", rid)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("appointments: decoding %s response: %w", op, err)
	}
	return nil
}

func (c *Client) record(op string, status int, d time.Duration) {
	if c.metrics == nil {
		return
	}
	tags := map[string]string{"op": op, "code": statusClass(status)}
	c.metrics.IncCounter(MetricRequests, tags)
	c.metrics.ObserveHistogram(MetricRequestDuration, d.Seconds(), tags)
}

func statusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func setInt(q url.Values, key string, v int) {
	if v != 0 {
		q.Set(key, strconv.Itoa(v))
	}
}
