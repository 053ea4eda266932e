package http

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	infra "github.com/pot-code/learnforge-gateway/internal/infrastructure"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/uuid"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learnforge-gateway/internal/interfaces/http/middleware"
	"github.com/pot-code/learnforge-gateway/internal/progress"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

const healthzTimeout = 3 * time.Second

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

// Serve create http transport server and block until it stops
func Serve(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	UserUseCase domain.UserUseCase,
	ProgressRepos progress.RepositoryFactory,
	CourseUseCase domain.CourseUseCase,
	ResourceUseCase domain.ResourceUseCase,
	logger *zap.Logger,
) error {
	registry := newRegistry(ProgressRepos, logger)
	app := newApp(conn, rdb, option, UserUseCase, registry, CourseUseCase, ResourceUseCase, logger)
	printRoutes(app, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.EvictIdle(ctx, option.SessionTimeout)

	if err := app.Start(fmt.Sprintf("%s:%d", option.Host, option.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// progressRegistry a registry whose alerts and summaries are pushed over websocket
type progressRegistry struct {
	*progress.Registry
	websocket *infra.Websocket
	notifier  *Notifier
}

func newRegistry(repos progress.RepositoryFactory, logger *zap.Logger) *progressRegistry {
	websocket := infra.NewWebsocket(logger)
	notifier := NewNotifier(websocket, logger)
	return &progressRegistry{
		Registry: progress.NewRegistry(repos, notifier, logger,
			progress.WithSummaryHook(notifier.PushSummary)),
		websocket: websocket,
		notifier:  notifier,
	}
}

func newApp(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	UserUseCase domain.UserUseCase,
	registry *progressRegistry,
	CourseUseCase domain.CourseUseCase,
	ResourceUseCase domain.ResourceUseCase,
	logger *zap.Logger,
) *echo.Echo {
	var (
		app       = echo.New()
		validator = validate.NewValidator()
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName,
			option.SessionTimeout)
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: func(ctx context.Context, token string) (bool, error) {
				return rdb.Exists(ctx, token)
			},
		})
		refreshMiddleware = middleware.RefreshToken(jwtUtil, &middleware.RefreshTokenOption{
			Threshold: option.SessionRefresh,
		})
		requestIDMiddleware = echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
			Generator: uuid.NewTraceID,
		})
	)
	app.HideBanner = true

	registerLivenessProbe(app, conn, rdb)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, traceID string, err error) {
				code := http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					code = he.Code
					err = fmt.Errorf("%v", he.Message)
				} else {
					logger.Error(err.Error(), zap.String("trace.id", traceID))
				}
				c.JSON(code, NewRESTStandardError(code, err.Error()).SetTraceID(traceID))
			},
			Logger: logger,
		},
	))
	app.Use(middleware.NoRouteMatched())
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORSWithConfig(echo_middleware.CORSConfig{
		AllowOrigins:     option.CORS.AllowOrigins,
		AllowCredentials: true,
	}))
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
		Skipper: func(c echo.Context) bool {
			// websocket connections outlive the handler
			return strings.HasSuffix(c.Path(), "/ws/notify")
		},
	}))

	var (
		UserHandler     = NewUserHandler(jwtUtil, rdb, UserUseCase, registry.Registry, validator)
		ProgressHandler = NewProgressHandler(registry.Registry, jwtUtil, validator)
		CourseHandler   = NewCourseHandler(CourseUseCase, ResourceUseCase, registry.Registry, jwtUtil, validator, logger)
		NotifyHandler   = NewNotifyHandler(registry.websocket, registry.notifier, registry.Registry, jwtUtil)
	)

	createEndpoint(app, v1Endpoint(
		UserHandler,
		ProgressHandler,
		CourseHandler,
		NotifyHandler,
		jwtMiddleware, refreshMiddleware, requestIDMiddleware, middleware.SetTraceLogger(logger),
	))
	return app
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			name := route.Name
			trimIndex := strings.LastIndexByte(name, '/')
			logger.Debug("Registered route", zap.String("method", route.Method), zap.String("path", route.Path), zap.String("name", string(name[trimIndex+1:])))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, rdb driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthzTimeout)
		defer cancel()
		if db.Ping(ctx) == nil && rdb.Ping(ctx) == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}

func createEndpoint(app *echo.Echo, def *endpoint) {
	type RESTMethod func(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

	var root *echo.Group
	if strings.HasPrefix(def.apiVersion, "/") {
		root = app.Group(def.apiVersion, def.middlewares...)
	} else {
		root = app.Group("/"+def.apiVersion, def.middlewares...)
	}

	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			var method RESTMethod
			switch api.method {
			case "GET":
				method = echoGroup.GET
			case "POST":
				method = echoGroup.POST
			case "PUT":
				method = echoGroup.PUT
			case "DELETE":
				method = echoGroup.DELETE
			case "HEAD":
				method = echoGroup.HEAD
			default:
				panic(fmt.Errorf("createEndpoint: unknown method %s", api.method))
			}
			method(api.path, api.handler, api.middlewares...)
		}
	}
}
