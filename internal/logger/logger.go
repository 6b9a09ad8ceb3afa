package logger

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// New builds a zap logger writing to estatedesk.log inside dataDir.
// The TUI owns stdout, so nothing is ever logged to the terminal.
func New(dataDir string, debug bool) (*zap.Logger, error) {
	logPath := filepath.Join(dataDir, "estatedesk.log")

	var zapConfig zap.Config
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.OutputPaths = []string{logPath}
	zapConfig.ErrorOutputPaths = []string{logPath}

	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}
