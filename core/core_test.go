package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// mockVerifier records calls and replays scripted results.
type mockVerifier struct {
	mu      sync.Mutex
	calls   []string
	results []verifyResult
}

type verifyResult struct {
	id  *Identity
	err error
}

func (m *mockVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, token)
	if len(m.results) == 0 {
		return nil, errors.New("no scripted result")
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r.id, r.err
}

// mockLogger is a mock implementation of Logger for testing.
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg  string
	args []any
}

func (m *mockLogger) Debug(msg string, args ...any) {
	m.debugCalls = append(m.debugCalls, logCall{msg, args})
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.infoCalls = append(m.infoCalls, logCall{msg, args})
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.warnCalls = append(m.warnCalls, logCall{msg, args})
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.errorCalls = append(m.errorCalls, logCall{msg, args})
}

type mockMetrics struct {
	counters map[string]int
	observed int
}

func (m *mockMetrics) IncCounter(name string, tags map[string]string) {
	if m.counters == nil {
		m.counters = map[string]int{}
	}
	m.counters[name+"/"+tags["outcome"]]++
}

func (m *mockMetrics) ObserveHistogram(string, float64, map[string]string) {
	m.observed++
}

func TestNew(t *testing.T) {
	v := &mockVerifier{}

	t.Run("successful creation with required options", func(t *testing.T) {
		c, err := New(WithVerifier(v))
		require.NoError(t, err)
		assert.NotNil(t, c.tracer)
		assert.False(t, c.retryUnavailable)
	})

	t.Run("successful creation with all options", func(t *testing.T) {
		c, err := New(
			WithVerifier(v),
			WithRetryUnavailable(true),
			WithLogger(&mockLogger{}),
			WithMetrics(&mockMetrics{}),
			WithTracer(noop.NewTracerProvider().Tracer("test")),
		)
		require.NoError(t, err)
		assert.True(t, c.retryUnavailable)
		assert.NotNil(t, c.logger)
		assert.NotNil(t, c.metrics)
	})

	t.Run("error when verifier is missing", func(t *testing.T) {
		_, err := New()
		assert.EqualError(t, err, "verifier is required but not set (use WithVerifier option)")
	})

	t.Run("error when options receive nil", func(t *testing.T) {
		_, err := New(WithVerifier(nil))
		assert.Error(t, err)

		_, err = New(WithVerifier(v), WithLogger(nil))
		assert.Error(t, err)

		_, err = New(WithVerifier(v), WithMetrics(nil))
		assert.Error(t, err)

		_, err = New(WithVerifier(v), WithTracer(nil))
		assert.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no token resolves to nil without calling the verifier", func(t *testing.T) {
		v := &mockVerifier{}
		m := &mockMetrics{}
		c, err := New(WithVerifier(v), WithMetrics(m))
		require.NoError(t, err)

		assert.Nil(t, c.Resolve(ctx, ""))
		assert.Empty(t, v.calls)
		assert.Equal(t, 1, m.counters[MetricResolutions+"/"+OutcomeAnonymous])
	})

	t.Run("accepted token keeps the exact raw token", func(t *testing.T) {
		const token = "eyJ.raw-token.sig"
		v := &mockVerifier{results: []verifyResult{
			{id: &Identity{UserID: "u-1", Role: RoleDoctor, Token: "ignored"}},
		}}
		c, err := New(WithVerifier(v))
		require.NoError(t, err)

		id := c.Resolve(ctx, token)
		require.NotNil(t, id)
		assert.Equal(t, &Identity{UserID: "u-1", Role: RoleDoctor, Token: token}, id)
		assert.Equal(t, []string{token}, v.calls)
	})

	t.Run("rejected token resolves to nil", func(t *testing.T) {
		v := &mockVerifier{results: []verifyResult{
			{err: NewVerificationError(KindRejected, 401, "token rejected", nil)},
		}}
		logger := &mockLogger{}
		m := &mockMetrics{}
		c, err := New(WithVerifier(v), WithLogger(logger), WithMetrics(m), WithRetryUnavailable(true))
		require.NoError(t, err)

		assert.Nil(t, c.Resolve(ctx, "bad"))
		assert.Len(t, v.calls, 1, "rejections are never retried")
		require.Len(t, logger.warnCalls, 1)
		assert.Contains(t, logger.warnCalls[0].args, OutcomeRejected)
		assert.Equal(t, 1, m.counters[MetricResolutions+"/"+OutcomeRejected])
		assert.Equal(t, 1, m.observed)
	})

	t.Run("unavailable authority resolves to nil without retry by default", func(t *testing.T) {
		v := &mockVerifier{results: []verifyResult{
			{err: NewVerificationError(KindUnavailable, 0, "verify request failed", errors.New("connection refused"))},
		}}
		c, err := New(WithVerifier(v))
		require.NoError(t, err)

		assert.Nil(t, c.Resolve(ctx, "tok"))
		assert.Len(t, v.calls, 1)
	})

	t.Run("unavailable authority is retried once when enabled", func(t *testing.T) {
		v := &mockVerifier{results: []verifyResult{
			{err: NewVerificationError(KindUnavailable, 503, "verify failed", nil)},
			{id: &Identity{UserID: "u-2", Role: RolePatient}},
		}}
		c, err := New(WithVerifier(v), WithRetryUnavailable(true))
		require.NoError(t, err)

		id := c.Resolve(ctx, "tok")
		require.NotNil(t, id)
		assert.Equal(t, "u-2", id.UserID)
		assert.Len(t, v.calls, 2)
	})

	t.Run("second unavailable outcome still resolves to nil", func(t *testing.T) {
		v := &mockVerifier{results: []verifyResult{
			{err: NewVerificationError(KindUnavailable, 0, "timeout", context.DeadlineExceeded)},
		}}
		c, err := New(WithVerifier(v), WithRetryUnavailable(true))
		require.NoError(t, err)

		assert.Nil(t, c.Resolve(ctx, "tok"))
		assert.Len(t, v.calls, 2)
	})

	t.Run("verifier returning no identity and no error is a rejection", func(t *testing.T) {
		v := &mockVerifier{results: []verifyResult{{}}}
		m := &mockMetrics{}
		c, err := New(WithVerifier(v), WithMetrics(m))
		require.NoError(t, err)

		assert.Nil(t, c.Resolve(ctx, "tok"))
		assert.Equal(t, 1, m.counters[MetricResolutions+"/"+OutcomeRejected])
	})
}

func TestVerificationError(t *testing.T) {
	details := errors.New("dial tcp: connection refused")
	err := NewVerificationError(KindUnavailable, 0, "verify request failed", details)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, details)
	assert.Equal(t, "verify request failed: dial tcp: connection refused", err.Error())

	rejected := NewVerificationError(KindRejected, 401, "token rejected", nil)
	assert.ErrorIs(t, rejected, ErrRejected)
	assert.Equal(t, "token rejected (status 401)", rejected.Error())
	assert.Equal(t, "rejected", KindRejected.String())
	assert.Equal(t, "unavailable", KindUnavailable.String())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RolePatient.Valid())
	assert.True(t, RoleDoctor.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("RECEPTIONIST").Valid())
	assert.False(t, Role("").Valid())
}
