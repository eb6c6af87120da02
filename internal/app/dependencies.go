// Package app assembles the decode application's dependency graph.
package app

import (
	"log"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"line21/internal/controllers/encoders"
	"line21/internal/controllers/engine"
	"line21/internal/controllers/producers"
	"line21/internal/entities"
	"line21/internal/mapper"
)

// Dependencies builds the fx graph around a fully resolved Config (env
// defaults already merged with CLI flag overrides by the caller).
func Dependencies(c *entities.Config) fx.Option {
	return fx.Options(
		// Producers
		fx.Provide(producers.NewFFmpegProducer),
		fx.Provide(producers.NewRawStripProducer),

		// Encoders
		fx.Provide(encoders.NewSRTEncoder),
		fx.Provide(encoders.NewSCCEncoder),
		fx.Provide(encoders.NewHTMLEncoder),
		fx.Provide(encoders.NewTextEncoder),
		fx.Provide(encoders.NewXDSEncoder),
		fx.Provide(encoders.NewRawEncoder),
		fx.Provide(encoders.NewDebugEncoder),

		fx.Provide(engine.NewDecodeEngineController),

		// Mappers
		fx.Provide(mapper.NewMapper),

		// Session identity and counters
		fx.Provide(func() entities.SessionID {
			return entities.SessionID(uuid.NewString())
		}),
		fx.Provide(func() *entities.SessionStats {
			return &entities.SessionStats{}
		}),

		// Logging, Config constructors
		fx.Provide(func() *zap.SugaredLogger {
			logger, _ := zap.NewProduction()
			return logger.Sugar()
		}),
		fx.Provide(func() *entities.Config {
			return c
		}),
	)
}

// ConfigFromEnv loads the LINE21_-prefixed environment defaults.
func ConfigFromEnv() *entities.Config {
	var c entities.Config
	if err := envconfig.Process("line21", &c); err != nil {
		log.Fatal(err.Error())
	}
	c.Calibration = entities.DefaultCalibration()
	return &c
}
