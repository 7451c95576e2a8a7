// Package providers contains dependency injection providers for the Bookshelf server.
package providers

import (
	"io"
	"os"

	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
)

// ProvideConfig returns a provider for the configuration parsed from args.
func ProvideConfig(args []string) func(do.Injector) (*config.Config, error) {
	return func(do.Injector) (*config.Config, error) {
		return config.Load(args)
	}
}

// ProvideLogger provides the structured logger writing to stdout.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	return ProvideLoggerTo(os.Stdout)(i)
}

// ProvideLoggerTo returns a logger provider writing to w.
func ProvideLoggerTo(w io.Writer) func(do.Injector) (*logger.Logger, error) {
	return func(i do.Injector) (*logger.Logger, error) {
		return newLogger(do.MustInvoke[*config.Config](i), w), nil
	}
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	log := logger.New(logger.Config{
		Writer:      w,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Bookshelf Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"store", cfg.Storage.Backend,
		"settings", cfg.Settings.Backend,
	)

	return log
}
