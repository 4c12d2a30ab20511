package ratelimit

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func TestAllowPerClient(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"), "buckets are per client")
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(2 * time.Minute)
	l.Allow("recent")
	now = now.Add(2 * time.Minute)

	l.Sweep()

	assert.NotContains(t, l.clients, "old")
	assert.Contains(t, l.clients, "recent")
}

func TestGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(0.001, 1)

	r := gin.New()
	r.POST("/appointments", l.Gin(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"Too many requests."}`, rec.Body.String())
}

func TestUnaryServerInterceptor(t *testing.T) {
	l := New(0.001, 1)
	interceptor := l.UnaryServerInterceptor("/portal.Appointments/Create")

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.9"), Port: 4000}})
	ok := func(context.Context, any) (any, error) { return "ok", nil }

	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/portal.Appointments/Create"}, ok)
	require.NoError(t, err)

	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/portal.Appointments/Create"}, ok)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	for i := 0; i < 3; i++ {
		_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/portal.Appointments/List"}, ok)
		assert.NoError(t, err, "unlisted methods are not limited")
	}
}
