// Package backendtest runs an in-memory stand-in for the appointment backend
// and its session verification endpoint. It records every request so tests
// can assert on paths, headers and call counts.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medistream/go-session-middleware/appointments"
	"github.com/medistream/go-session-middleware/core"
)

// Request is one recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          string
}

// Server is a fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	// BareLists makes list endpoints answer with a bare JSON array instead of
	// the {"appointments": [...]} wrapper.
	BareLists bool

	// Now stamps createdAt and updatedAt.
	Now func() time.Time

	mu           sync.Mutex
	requests     []Request
	appointments map[string]appointments.Appointment
	sessions     map[string]core.Identity
	failures     map[string]failure
	nextID       int
}

type failure struct {
	status  int
	message string
}

// New starts a Server and registers its shutdown with t.
func New(t testing.TB) *Server {
	s := &Server{
		Now:          func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) },
		appointments: make(map[string]appointments.Appointment),
		sessions:     make(map[string]core.Identity),
		failures:     make(map[string]failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/verify", s.verify)
	mux.HandleFunc("POST /appointments", s.create)
	mux.HandleFunc("GET /appointments", s.list)
	mux.HandleFunc("GET /appointments/{id}", s.get)
	mux.HandleFunc("PUT /appointments/{id}", s.update)
	mux.HandleFunc("DELETE /appointments/{id}", s.delete)
	mux.HandleFunc("PUT /appointments/{id}/reschedule", s.reschedule)
	mux.HandleFunc("POST /appointments/{id}/cancel", s.cancel)
	mux.HandleFunc("POST /appointments/{id}/status", s.status)
	mux.HandleFunc("GET /appointments/doctor/{id}", s.listBy(func(a appointments.Appointment, id string) bool { return a.DoctorID == id }))
	mux.HandleFunc("GET /appointments/patient/{id}", s.listBy(func(a appointments.Appointment, id string) bool { return a.PatientID == id }))

	s.Server = httptest.NewServer(s.recording(mux))
	t.Cleanup(s.Close)
	return s
}

// AddSession makes token verify as the given user.
func (s *Server) AddSession(token, userID string, role core.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = core.Identity{UserID: userID, Role: role}
}

// Seed stores appointments as is.
func (s *Server) Seed(as ...appointments.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range as {
		s.appointments[a.ID] = a
	}
}

// Appointment returns the stored appointment with id.
func (s *Server) Appointment(id string) (appointments.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

// Fail makes every request whose path starts with prefix answer with status
// and an {"error": message} body.
func (s *Server) Fail(prefix string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = failure{status: status, message: message}
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the recorded requests whose path starts with prefix.
func (s *Server) RequestsTo(prefix string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) recording(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-Id"),
			Body:          string(body),
		})
		var f *failure
		for prefix, candidate := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				f = &candidate
			}
		}
		s.mu.Unlock()

		if f != nil {
			writeJSON(w, f.status, map[string]string{"error": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	id, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid",
		"user_id": id.UserID,
		"role":    id.Role,
		"token":   token,
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var a appointments.Appointment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}

	s.mu.Lock()
	s.nextID++
	a.ID = "appt-" + strconv.Itoa(s.nextID)
	a.Status = appointments.StatusPending
	a.CreatedAt = s.Now()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = a
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Appointment created successfully", "appointment": a})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	page := atoi(r.URL.Query().Get("page"), 1)
	limit := atoi(r.URL.Query().Get("limit"), 10)

	all := s.sorted(func(appointments.Appointment) bool { return true })
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	items := all[start:end]

	if s.BareLists {
		writeJSON(w, http.StatusOK, items)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items, "page": page, "limit": limit, "total": len(all)})
}

func (s *Server) listBy(match func(appointments.Appointment, string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.PathValue("id")
		limit := atoi(r.URL.Query().Get("limit"), 10)
		offset := atoi(r.URL.Query().Get("offset"), 0)

		all := s.sorted(func(a appointments.Appointment) bool { return match(a, owner) })
		start := min(offset, len(all))
		end := min(start+limit, len(all))
		items := all[start:end]

		if s.BareLists {
			writeJSON(w, http.StatusOK, items)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	a, ok := s.Appointment(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Appointment not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointment": a})
}

// update applies every field present in the body, the way the real backend
// binds the whole record, so a client sending more than it should is visible.
func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}
	s.modify(w, r.PathValue("id"), "Appointment updated successfully", func(a *appointments.Appointment) {
		id := a.ID
		_ = json.Unmarshal(body, a)
		a.ID = id
	})
}

func (s *Server) reschedule(w http.ResponseWriter, r *http.Request) {
	var in appointments.Reschedule
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}
	s.modify(w, r.PathValue("id"), "Appointment rescheduled", func(a *appointments.Appointment) {
		a.Date = in.Date
		a.Duration = in.Duration
	})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.modify(w, r.PathValue("id"), "Appointment cancelled", func(a *appointments.Appointment) {
		a.Status = appointments.StatusCancelled
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status appointments.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !in.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}
	s.modify(w, r.PathValue("id"), "Appointment status updated", func(a *appointments.Appointment) {
		a.Status = in.Status
	})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.appointments[id]
	delete(s.appointments, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Appointment not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

func (s *Server) modify(w http.ResponseWriter, id, message string, fn func(*appointments.Appointment)) {
	s.mu.Lock()
	a, ok := s.appointments[id]
	if ok {
		fn(&a)
		a.UpdatedAt = s.Now()
		s.appointments[id] = a
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Appointment not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "appointment": a})
}

func (s *Server) sorted(keep func(appointments.Appointment) bool) []appointments.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []appointments.Appointment{}
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("backendtest: encoding response: %v", err))
	}
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
