package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/onegat/console/internal/api/handler"
	"github.com/onegat/console/internal/api/middleware"
	"github.com/onegat/console/internal/core/domain"
	"github.com/onegat/console/internal/core/ports"
	"github.com/onegat/console/internal/core/service"
	ops "github.com/onegat/console/internal/infrastructure/http"
)

// Deps carries everything the router wires together.
type Deps struct {
	Shells middleware.ShellProvider
	Gate   *service.Gate
	Routes *domain.RouteTable
	Scope  middleware.ScopeConfig
	// LoginRateLimit is the number of login and reset attempts per client IP
	// per minute.
	LoginRateLimit int
	Heartbeat      time.Duration
	Checkers       []ports.HealthChecker
	// Registerer receives the HTTP request metrics. Defaults to the global
	// prometheus registerer.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: d.Registerer,
	}))

	// --- Ops (no scope) ---
	ops.RegisterOps(e, d.Checkers...)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Gate, d.Log)
	screenHandler := handler.NewScreenHandler()
	watchHandler := handler.NewWatchHandler(d.Gate, d.Routes, d.Heartbeat)
	passwordHandler := handler.NewPasswordHandler()

	scoped := e.Group("", middleware.Scope(d.Shells, d.Scope))
	terms := middleware.Terms()
	throttle := loginThrottle(d.LoginRateLimit)

	// Reachable while the demo-terms screen is blocking.
	scoped.POST(middleware.TermsAcceptPath, authHandler.AcceptTerms)
	scoped.POST(middleware.LogoutPath, authHandler.Logout)
	scoped.GET("/session", authHandler.Session)
	scoped.GET("/session/watch", watchHandler.Watch)

	// --- Session ---
	scoped.GET(d.Gate.LoginPath(), authHandler.LoginView, terms)
	scoped.POST("/login", authHandler.Login, terms, throttle)

	// --- Screens ---
	for _, spec := range d.Routes.Specs() {
		scoped.GET(spec.Path(), screenHandler.Guarded, terms, middleware.Guard(d.Gate, spec, d.Log))
	}
	public := domain.PublicPaths()
	if !slices.Contains(public, d.Gate.ForbiddenPath()) {
		public = append(public, d.Gate.ForbiddenPath())
	}
	for _, p := range public {
		if p == d.Gate.LoginPath() {
			continue
		}
		scoped.GET(p, screenHandler.Public, terms)
	}

	// --- Password ---
	if spec, ok := d.Routes.Lookup("/cambiar-contrasena"); ok {
		scoped.POST(spec.Path(), passwordHandler.Change, terms, middleware.Guard(d.Gate, spec, d.Log))
	}
	scoped.POST("/solicitar-recuperacion", passwordHandler.RequestReset, terms, throttle)
	scoped.POST("/resetear-contrasena", passwordHandler.Reset, terms, throttle)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// loginThrottle limits credential submissions per client IP.
func loginThrottle(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "client not identified")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
		},
	})
}
