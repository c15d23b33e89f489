package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/kafka"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/quotalock"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/uploads"
	"github.com/nguyentranbao-ct/listing-proxy/internal/server"
	"github.com/nguyentranbao-ct/listing-proxy/internal/usecase"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	if err := logger.SetLevel(conf.LogLevel); err != nil {
		log.Warnw("keeping default log level", "error", err)
	}
	log.Debugw("config loaded", "config", redact(conf))

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		Module(conf),
		fx.Invoke(funcs...),
	)
}

// Module provides every component of the service for the given config.
func Module(conf *config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			newRedisClient,

			shopify.NewClient,
			uploads.NewStager,
			quotalock.NewLocker,
			kafka.NewPublisher,

			usecase.NewIdentityResolver,
			usecase.NewOwnershipCodec,
			usecase.NewQuotaEnforcer,
			usecase.NewImageReconciler,
			usecase.NewListingUsecase,

			server.NewHandler,
		),
		fx.Supply(conf),
	)
}

func redact(conf *config.Config) config.Config {
	safe := *conf
	safe.Shopify.AccessToken = mask(safe.Shopify.AccessToken)
	safe.Redis.URL = mask(safe.Redis.URL)
	return safe
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
