package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/listing-proxy/internal/server/middleware"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
	"go.uber.org/fx"
)

// multipart framing and text fields on top of the files themselves
const formOverhead = 1 << 20

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler Controller,
) error {
	e, err := NewEcho(conf, handler)
	if err != nil {
		return err
	}

	var closeProfiler func()
	if conf.Server.StatsdAddr != "" {
		mw, closeFn, err := pkgmdw.ProfilerWithConfig(pkgmdw.ProfilerConfig{
			Log:     logger.MustNamed("statsd"),
			Address: conf.Server.StatsdAddr,
			Service: conf.Server.Service,
		})
		if err != nil {
			return fmt.Errorf("init profiler: %w", err)
		}
		e.Use(mw)
		closeProfiler = closeFn
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logctx.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					logctx.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if closeProfiler != nil {
				defer closeProfiler()
			}
			return e.Shutdown(ctx)
		},
	})
	return nil
}

// NewEcho builds the HTTP surface without starting it.
func NewEcho(conf *config.Config, handler Controller) (*echo.Echo, error) {
	allowOrigin, err := regexp.Compile(conf.CORS.AllowOrigin)
	if err != nil {
		return nil, fmt.Errorf("compile cors origin: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		Fields: func(c echo.Context) []any {
			if id, ok := callerID(c); ok {
				return []any{"storefront_user_id", id}
			}
			return nil
		},
	}

	bodyLimit := conf.Upload.MaxFileSize*int64(conf.Upload.MaxFiles) + formOverhead

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logctx.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(pkgmdw.CORS(allowOrigin))
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodyLimit, 10)))

	e.GET("/health", handler.Health)

	e.POST("/create-product", pkgmdw.WrapHandler(handler.CreateProduct))
	e.PUT("/update-product/:product_id", pkgmdw.WrapHandler(handler.UpdateProduct))
	e.GET("/products/:storefront_user_id", pkgmdw.WrapHandler(handler.ListProducts))
	e.DELETE("/remove-product/:product_id", pkgmdw.WrapHandler(handler.RemoveProduct))

	if conf.Server.Pprof {
		pkgmdw.Pprof(e, "")
	}

	return e, nil
}
