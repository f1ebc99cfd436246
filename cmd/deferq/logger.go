package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ruudy-sib/deferq/internal/config"
)

// developmentEnvironments get human-readable console logs; everything else
// logs JSON for the log shipper.
var developmentEnvironments = map[string]bool{
	"local":       true,
	"development": true,
	"test":        true,
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config

	if developmentEnvironments[cfg.Environment] {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "time"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// Retry storms log the same "job failed" line per attempt; keep them all.
		zapCfg.Sampling = nil
	}

	level, levelErr := zapcore.ParseLevel(cfg.LogLevel)
	if levelErr != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.Fields(
		zap.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	logger = logger.Named(appName)
	if levelErr != nil {
		logger.Warn("invalid LOG_LEVEL, using info", zap.String("log_level", cfg.LogLevel))
	}

	return logger, nil
}
