package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/99minutos/passport/docs"
	"github.com/99minutos/passport/internal/api/handler"
	"github.com/99minutos/passport/internal/api/middleware"
	"github.com/99minutos/passport/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Users    ports.UserService
	Sessions ports.SessionResolver
	Checks   map[string]handler.Check
	Log      zerolog.Logger

	// RateLimitRPS throttles POST /verification per client IP. Zero disables it.
	RateLimitRPS float64

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "passport",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(d.Users)
	healthHandler := handler.NewHealthHandler(d.Checks)
	requireSession := middleware.Auth(d.Sessions)

	// --- Passport routes ---
	v1 := e.Group("/api/v1/passport")
	v1.POST("/register", userHandler.Register)
	v1.POST("/login", userHandler.Login)
	v1.POST("/logout", userHandler.Logout, requireSession)
	v1.POST("/verification", userHandler.SendVerification, verificationLimiter(d.RateLimitRPS)...)
	v1.POST("/verification/confirm", userHandler.ConfirmVerification)
	v1.GET("/me", userHandler.Me, requireSession)
	v1.PATCH("/me", userHandler.UpdateProfile, requireSession)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness
	e.GET("/health/ready", healthHandler.Readiness) // readiness

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// verificationLimiter returns the per-IP limiter for code requests, on top of
// the per-address window enforced by the verification store.
func verificationLimiter(rps float64) []echo.MiddlewareFunc {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})}
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("remote_ip", v.RemoteIP).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
