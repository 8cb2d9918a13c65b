package inits

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Logger(debugMode bool, level string) (l *zap.Logger, err error) {
	if level == "silent" {
		return zap.NewNop(), nil
	}

	var zc zap.Config
	if debugMode {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	if l, err = zc.Build(); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return l, nil
}
