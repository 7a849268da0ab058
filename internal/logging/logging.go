package logging

import (
	"go.uber.org/zap"
)

// New constrói o logger padrão do codesweep (console encoding).
// debug habilita o config de desenvolvimento com nível Debug.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop retorna um logger descartável, útil em testes.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
