// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maciejonos/qbitwebui/internal/buildinfo"
	"github.com/maciejonos/qbitwebui/internal/config"
	"github.com/maciejonos/qbitwebui/internal/crossseed"
	"github.com/maciejonos/qbitwebui/internal/domain"
	"github.com/maciejonos/qbitwebui/internal/metrics"
	"github.com/maciejonos/qbitwebui/internal/shell"
	"github.com/maciejonos/qbitwebui/internal/tui"
)

func RunConsoleCommand(configDir *string) *cobra.Command {
	var (
		instanceRef string
		layout      string
		logPath     string
	)

	var command = &cobra.Command{
		Use:   "console",
		Short: "Open the cross-seed console",
		Long: `Open the interactive cross-seed console.

Log output goes to the configured log file only while the console is open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("console requires a terminal")
			}
			if logPath != "" {
				os.Setenv("QBITWEBUI__LOG_PATH", logPath)
			}

			cfg, err := loadConfig(*configDir, true)
			if err != nil {
				return err
			}
			if layout != "" {
				cfg.Config.Layout = strings.ToLower(layout)
			}

			app := &Console{cfg: cfg, instanceRef: instanceRef}
			return app.Run(cmd.Context())
		},
	}

	command.Flags().StringVarP(&instanceRef, "instance", "i", "", "instance id or label to open (defaults to the first)")
	command.Flags().StringVar(&layout, "layout", "", "layout override: auto, wide or compact")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path")

	return command
}

// Console wires the shell, the cross-seed session and the terminal UI.
type Console struct {
	cfg         *config.AppConfig
	instanceRef string
}

func (c *Console) Run(ctx context.Context) error {
	cfg := c.cfg
	log.Info().Str("version", buildinfo.Version).Msg("Starting qbitwebui console")

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	themes := shell.NewThemeService(cfg.Config.Theme, nil)
	var updates *shell.UpdateChecker
	if cfg.Config.CheckForUpdates {
		updates = shell.NewUpdateChecker(shell.UpdateConfig{
			Repository:     cfg.Config.UpdateRepository,
			CurrentVersion: buildinfo.Version,
			UserAgent:      buildinfo.UserAgent,
		})
	}

	app := shell.NewApp(shell.Dependencies{
		Backend: client,
		Themes:  themes,
		Updates: updates,
	})
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop()

	location := "#/cross-seed"
	if c.instanceRef != "" {
		instance, err := app.Selector().Resolve(c.instanceRef)
		if err != nil {
			return err
		}
		location += "/" + strconv.Itoa(instance.ID)
	}
	route := app.Navigate(location)

	cfg.RegisterReloadListener(func(conf *domain.Config) {
		if err := themes.Set(conf.Theme); err != nil {
			log.Warn().Err(err).Msg("ignoring theme from reloaded config")
		}
	})

	var metricsManager *metrics.Manager
	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewMetricsManager()
		metricsServer := metrics.NewMetricsServer(metricsManager, cfg.Config.MetricsHost, cfg.Config.MetricsPort)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("got error during metrics server shutdown")
			}
		}()
	}

	sessionCfg := crossseed.DefaultConfig()
	sessionCfg.PollInterval = cfg.PollInterval()
	sessionCfg.LogLimit = cfg.Config.LogLimit
	sessionCfg.SuccessClear = cfg.SuccessClearDelay()
	sessionCfg.Metrics = metricsManager

	session := crossseed.NewSession(sessionCfg, client, app.Instances())
	if route.InstanceID != 0 && !session.Select(route.InstanceID) {
		log.Warn().Int("instanceID", route.InstanceID).Msg("instance not found, showing the first instance")
	}

	err = tui.Run(ctx, tui.Options{
		Session: session,
		Themes:  themes,
		Layout:  cfg.Config.Layout,
		Notice:  app.UpdateNotice,
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}

	log.Info().Msg("console closed")
	return nil
}
