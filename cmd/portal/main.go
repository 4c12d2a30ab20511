// Command portal serves the clinical booking portal's appointment pages and
// API in front of the appointment backend.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/appointments"
	"github.com/medistream/go-session-middleware/core"
	sessiongrpc "github.com/medistream/go-session-middleware/integrations/grpc"
	"github.com/medistream/go-session-middleware/internal/config"
	"github.com/medistream/go-session-middleware/internal/portal"
	"github.com/medistream/go-session-middleware/internal/ratelimit"
	"github.com/medistream/go-session-middleware/verifier"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := newLogger(cfg, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("portal stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sessionmiddleware.NewLogrusLogger(log)
	metrics := sessionmiddleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	v, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	session, err := sessionmiddleware.New(
		sessionmiddleware.WithVerifier(v),
		sessionmiddleware.WithCookieName(cfg.CookieName),
		sessionmiddleware.WithRetryUnavailable(cfg.RetryUnavailable),
		sessionmiddleware.WithExclusionURLs([]string{"/healthz", "/metrics"}),
		sessionmiddleware.WithLogger(logger),
		sessionmiddleware.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	client, err := appointments.New(
		appointments.WithBaseURL(cfg.BackendBaseURL),
		appointments.WithTimeout(cfg.BackendTimeout),
		appointments.WithLogger(logger),
		appointments.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	portalOpts := []portal.Option{
		portal.WithLoginPath(cfg.LoginPath),
		portal.WithTrustedProxies(&sessionmiddleware.TrustedProxyConfig{TrustXForwardedPrefix: cfg.TrustForwardedPrefix}),
		portal.WithCORSOrigins(cfg.CORSOrigins...),
		portal.WithRateLimiter(limiter),
		portal.WithLogger(logger),
	}
	if len(cfg.TrustedProxies) > 0 {
		portalOpts = append(portalOpts, portal.WithClientIPProxies(cfg.TrustedProxies...))
	}
	srv, err := portal.New(session, client, portalOpts...)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("portal listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCListenAddr != "" {
		grpcSrv, err = newGRPCServer(v, limiter, logger, metrics, cfg)
		if err != nil {
			return err
		}
		lis, err := net.Listen("tcp", cfg.GRPCListenAddr)
		if err != nil {
			return err
		}
		go func() {
			log.WithField("addr", cfg.GRPCListenAddr).Info("grpc listening")
			if err := grpcSrv.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	return httpSrv.Shutdown(shutdownCtx)
}

// newVerifier checks sessions locally when the backend's signing secret is
// configured and asks the backend otherwise.
func newVerifier(cfg *config.Config) (core.Verifier, error) {
	if cfg.JWTSecret != "" {
		v, err := verifier.NewJWTVerifier(cfg.JWTSecret, 30*time.Second)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	v, err := verifier.NewHTTPVerifier(
		verifier.WithBaseURL(cfg.BackendBaseURL),
		verifier.WithTimeout(cfg.VerifyTimeout),
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// newGRPCServer exposes the standard health service behind the session and
// rate limiting interceptors, so gRPC callers get the same session semantics
// as the HTTP portal.
func newGRPCServer(v core.Verifier, limiter *ratelimit.Limiter, logger sessionmiddleware.Logger, metrics core.Metrics, cfg *config.Config) (*grpc.Server, error) {
	interceptor, err := sessiongrpc.New(
		sessiongrpc.WithVerifier(v),
		sessiongrpc.WithTokenExtractor(sessiongrpc.MultiTokenExtractor(
			sessiongrpc.MetadataTokenExtractor,
			sessiongrpc.CookieTokenExtractor(cfg.CookieName),
		)),
		sessiongrpc.WithExcludedMethods(healthpb.Health_Check_FullMethodName, healthpb.Health_Watch_FullMethodName),
		sessiongrpc.WithRetryUnavailable(cfg.RetryUnavailable),
		sessiongrpc.WithLogger(logger),
		sessiongrpc.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			limiter.UnaryServerInterceptor(healthpb.Health_Check_FullMethodName),
			interceptor.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(interceptor.StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, health.NewServer())
	return srv, nil
}
