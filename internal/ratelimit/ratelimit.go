// Package ratelimit keeps one token bucket per client and refuses requests
// once a client's bucket is empty.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	sweepInterval = time.Minute
	idleTTL       = 3 * time.Minute
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter hands out per-client limiters. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	now     func() time.Time
}

// New returns a Limiter allowing rps requests per second per client with the
// given burst.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.clients[key]; ok {
		c.seen = l.now()
		return c.lim
	}
	lim := rate.NewLimiter(l.r, l.burst)
	l.clients[key] = &client{lim: lim, seen: l.now()}
	return lim
}

// Sweep forgets clients idle for longer than the TTL.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if l.now().Sub(c.seen) > idleTTL {
			delete(l.clients, key)
		}
	}
}

// Run sweeps idle clients every minute until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Gin limits requests by client IP.
func (l *Limiter) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests.",
			})
			return
		}
		c.Next()
	}
}

// UnaryServerInterceptor limits the listed methods by peer address. Other
// methods pass through.
func (l *Limiter) UnaryServerInterceptor(methods ...string) grpc.UnaryServerInterceptor {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		key := "unknown"
		if p, ok := peer.FromContext(ctx); ok {
			key = p.Addr.String()
		}
		if !l.Allow(key) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
