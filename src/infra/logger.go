package infra

import (
	"context"
	"time"

	"vigilo/src/config"

	zaploki "github.com/paul-milne/zap-loki"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger builds the process logger. When LOKI_URL is set, log entries
// are also shipped to Loki in batches.
func ProvideLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	_ = level.Set(cfg.LogLevel)

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.LokiURL != "" {
		loki := zaploki.New(context.Background(), zaploki.Config{
			Url:          cfg.LokiURL,
			BatchMaxSize: 1000,
			BatchMaxWait: 10 * time.Second,
			Labels:       map[string]string{"app": "vigilo"},
		})
		logger, err := loki.WithCreateLogger(zapCfg)
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
