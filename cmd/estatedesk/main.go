package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/api"
	"github.com/mnguyen/estatedesk/internal/app"
	"github.com/mnguyen/estatedesk/internal/credential"
	"github.com/mnguyen/estatedesk/internal/logger"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if err := run(*configPath, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "estatedesk: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	dataDir, err := model.DataDir()
	if err != nil {
		return err
	}

	log, err := logger.New(dataDir, debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	marks, err := watermark.NewSQLiteStore(filepath.Join(dataDir, "estatedesk.db"))
	if err != nil {
		return fmt.Errorf("opening watermark store: %w", err)
	}
	defer marks.Close()

	client := api.NewClient(
		cfg.API.BaseURL,
		loadToken(log),
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	// A stored token is validated up front so the dashboard can open
	// without a login round trip. Any failure just shows the form.
	var user *model.User
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if u, err := client.Me(ctx); err == nil {
		user = u
	} else {
		log.Info("no valid stored session", zap.Error(err))
	}
	cancel()

	program := tea.NewProgram(
		app.New(cfg, client, marks, user, log),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}

// loadToken prefers the environment variable, then the system keyring.
func loadToken(log *zap.Logger) string {
	if token := os.Getenv("ESTATEDESK_TOKEN"); token != "" {
		return token
	}
	token, err := credential.Get(credential.TokenKey)
	if err != nil {
		log.Debug("no stored token", zap.Error(err))
		return ""
	}
	return token
}
