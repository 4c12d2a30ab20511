// Package loader selects and fetches the appointments a caller may see.
//
// The loader takes the resolved identity explicitly rather than reading it
// from the request, so it can be exercised without any HTTP plumbing:
//
//	page, err := l.Load(ctx, id)
//	var redirect *loader.Redirect
//	if errors.As(err, &redirect) {
//	    http.Redirect(w, r, redirect.Location, redirect.Code)
//	    return
//	}
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/medistream/go-session-middleware/appointments"
	"github.com/medistream/go-session-middleware/core"
)

// DefaultLoginPath is where anonymous callers are sent.
const DefaultLoginPath = "/login"

// ErrUnsupportedRole is returned for an identity whose role has no
// appointment scope.
var ErrUnsupportedRole = errors.New("unsupported role")

// Redirect is returned as the error from Load when the caller must
// authenticate first. It ends normal page rendering.
type Redirect struct {
	Location string
	Code     int
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect %d to %s", r.Code, r.Location)
}

// Page is the data handed to the rendering layer.
type Page struct {
	User         *core.Identity             `json:"user"`
	Appointments []appointments.Appointment `json:"appointments"`
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Loader fetches the role-scoped appointment list for one identity.
type Loader struct {
	client    *appointments.Client
	loginPath string
	window    appointments.Window
	paging    appointments.Paging
	logger    Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// New builds a Loader over client.
func New(client *appointments.Client, opts ...Option) (*Loader, error) {
	if client == nil {
		return nil, errors.New("appointment client cannot be nil")
	}
	l := &Loader{
		client:    client,
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return l, nil
}

// WithLoginPath sets the redirect target for anonymous callers.
//
// Default: DefaultLoginPath
func WithLoginPath(path string) Option {
	return func(l *Loader) error {
		if path == "" {
			return errors.New("login path cannot be empty")
		}
		l.loginPath = path
		return nil
	}
}

// WithWindow sets the limit and offset for patient and doctor lists.
func WithWindow(w appointments.Window) Option {
	return func(l *Loader) error {
		l.window = w
		return nil
	}
}

// WithPaging sets the page for the unscoped admin list.
func WithPaging(p appointments.Paging) Option {
	return func(l *Loader) error {
		l.paging = p
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger
		return nil
	}
}

// Load returns the appointments visible to id.
//
// A nil id yields a *Redirect error and no backend call. Patients see their
// own appointments, doctors the ones assigned to them, admins everything.
// Every call carries the caller's bearer token. A failed fetch is logged and
// produces an empty list rather than an error.
func (l *Loader) Load(ctx context.Context, id *core.Identity) (*Page, error) {
	if id == nil {
		return nil, &Redirect{Location: l.loginPath, Code: http.StatusFound}
	}

	client := l.client.WithToken(id.Token)

	var (
		list *appointments.List
		err  error
	)
	switch id.Role {
	case core.RolePatient:
		list, err = client.ListByPatient(ctx, id.UserID, l.window)
	case core.RoleDoctor:
		list, err = client.ListByDoctor(ctx, id.UserID, l.window)
	case core.RoleAdmin:
		list, err = client.List(ctx, l.paging)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRole, id.Role)
	}

	page := &Page{User: id, Appointments: []appointments.Appointment{}}
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("failed to load appointments, rendering an empty list",
				"user_id", id.UserID,
				"role", string(id.Role),
				"error", err)
		}
		return page, nil
	}
	if len(list.Appointments) > 0 {
		page.Appointments = list.Appointments
	}
	return page, nil
}
