package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/alexcesaro/statsd.v2"
)

type ProfilerConfig struct {
	Skipper Skipper
	Log     Logger
	Address string
	Service string
}

var DefaultProfilerConfig = ProfilerConfig{
	Skipper: DefaultSkipper,
	Address: ":8125",
	Service: "listing-proxy",
}

var bucketReplacer = strings.NewReplacer("/", "_", ":", "", ".", "_")

// ProfilerWithConfig sends a statsd timing per request, named
// response.<service>.<method>.<route>.<status>. The returned close func
// flushes and stops the client.
func ProfilerWithConfig(config ProfilerConfig) (echo.MiddlewareFunc, func(), error) {
	if config.Skipper == nil {
		config.Skipper = DefaultProfilerConfig.Skipper
	}
	if config.Address == "" {
		config.Address = DefaultProfilerConfig.Address
	}
	if config.Service == "" {
		config.Service = DefaultProfilerConfig.Service
	}

	opts := []statsd.Option{statsd.Address(config.Address)}
	if config.Log != nil {
		opts = append(opts, statsd.ErrorHandler(func(err error) {
			config.Log.Warnw("statsd error", "error", err)
		}))
	}
	client, err := statsd.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("statsd client: %w", err)
	}

	mw := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if config.Skipper(c) {
				return next(c)
			}

			t := client.NewTiming()
			if err = next(c); err != nil {
				c.Error(err)
			}

			route := strings.Trim(bucketReplacer.Replace(c.Path()), "_")
			if route == "" || isNotFoundHandler(c.Handler()) {
				route = "not_found"
			}
			bucket := strings.ToLower(fmt.Sprintf("response.%s.%s.%s.%d",
				config.Service, c.Request().Method, route, c.Response().Status))
			if config.Log != nil {
				config.Log.Debugw("statsd timing", "bucket", bucket)
			}
			t.Send(bucket)

			return
		}
	}
	return mw, client.Close, nil
}
