// Package portal serves the appointment pages and the appointment API that
// the browser talks to. It resolves the session once per request, loads the
// role-scoped list for page requests and passes mutations through to the
// backend with the caller's token.
package portal

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/appointments"
	sessiongin "github.com/medistream/go-session-middleware/framework/gin"
	"github.com/medistream/go-session-middleware/internal/ratelimit"
	"github.com/medistream/go-session-middleware/internal/requestid"
	"github.com/medistream/go-session-middleware/loader"
)

// Server is the portal HTTP surface.
type Server struct {
	engine   *gin.Engine
	session  *sessionmiddleware.Middleware
	client   *appointments.Client
	loader   *loader.Loader
	logger   sessionmiddleware.Logger
	limiter  *ratelimit.Limiter
	gatherer prometheus.Gatherer

	loginPath     string
	proxies       *sessionmiddleware.TrustedProxyConfig
	clientProxies []string
	corsOrigins   []string
}

// New builds the portal around an already configured session middleware and
// appointment client.
func New(session *sessionmiddleware.Middleware, client *appointments.Client, opts ...Option) (*Server, error) {
	if session == nil {
		return nil, errors.New("session middleware cannot be nil")
	}
	if client == nil {
		return nil, errors.New("appointment client cannot be nil")
	}

	s := &Server{
		session:   session,
		client:    client,
		loginPath: loader.DefaultLoginPath,
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	loaderOpts := []loader.Option{loader.WithLoginPath(s.loginPath)}
	if s.logger != nil {
		loaderOpts = append(loaderOpts, loader.WithLogger(s.logger))
	}
	l, err := loader.New(client, loaderOpts...)
	if err != nil {
		return nil, err
	}
	s.loader = l

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	// A nil list makes ClientIP the peer address, ignoring X-Forwarded-For.
	if err := r.SetTrustedProxies(s.clientProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	if len(s.corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestid.Header},
			ExposeHeaders:    []string{requestid.Header},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	app := r.Group("/", sessiongin.New(s.session))
	app.GET("/appointments", s.appointmentsPage)

	api := app.Group("/appointments", sessiongin.RequireIdentity())
	write := []gin.HandlerFunc{}
	if s.limiter != nil {
		write = append(write, s.limiter.Gin())
	}
	api.GET("/:id", s.getAppointment)
	api.POST("", append(write, s.createAppointment)...)
	api.PUT("/:id", append(write, s.updateAppointment)...)
	api.DELETE("/:id", append(write, s.deleteAppointment)...)
	api.PUT("/:id/reschedule", append(write, s.rescheduleAppointment)...)
	api.POST("/:id/cancel", append(write, s.cancelAppointment)...)
	api.POST("/:id/status", append(write, s.changeStatus)...)

	return r, nil
}

// requestID adopts the caller's X-Request-Id or mints one, and echoes it back.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := requestid.WithID(c.Request.Context(), c.GetHeader(requestid.Header))
		ctx, id := requestid.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestid.Header, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.logger == nil {
			return
		}
		s.logger.Info("request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", requestid.FromContext(c.Request.Context()))
	}
}
