// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maciejonos/qbitwebui/internal/buildinfo"
	"github.com/maciejonos/qbitwebui/internal/config"
	"github.com/maciejonos/qbitwebui/internal/shell"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var configDir string

	var rootCmd = &cobra.Command{
		Use:   "qbitwebui",
		Short: "Cross-seed control surface for qbitwebui",
		Long: `qbitwebui - A terminal console and CLI for the cross-seed feature of a
qbitwebui backend: configure, scan, watch logs and manage the torrent cache.`,
		SilenceUsage: true,
	}

	rootCmd.Version = buildinfo.String()
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (default is OS-specific: ~/.config/qbitwebui/ or %APPDATA%\\qbitwebui\\)")

	rootCmd.AddCommand(RunConsoleCommand(&configDir))
	rootCmd.AddCommand(RunCrossSeedCommand(&configDir))
	rootCmd.AddCommand(RunInstancesCommand(&configDir))
	rootCmd.AddCommand(RunDevServerCommand(&configDir))
	rootCmd.AddCommand(RunGenerateConfigCommand(&configDir))
	rootCmd.AddCommand(RunVersionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunVersionCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of qbitwebui",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(buildinfo.String())
		},
	}

	return command
}

func RunGenerateConfigCommand(configDir *string) *cobra.Command {
	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/qbitwebui/config.toml
- Windows: %APPDATA%\qbitwebui\config.toml

You can specify either a directory path or a direct file path:
- Directory: qbitwebui generate-config --config-dir /path/to/config/
- File: qbitwebui generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if *configDir != "" {
				configPath = config.ResolveConfigPath(*configDir)
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	return command
}

func readPassword(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	var password string
	if _, err := fmt.Scanln(&password); err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return password, nil
}

// loadConfig reads the configuration. Quiet keeps log output off the
// terminal, for the console.
func loadConfig(configDir string, quiet bool) (*config.AppConfig, error) {
	cfg, err := config.New(configDir, buildinfo.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	cfg.SetQuiet(quiet)
	cfg.ApplyLogConfig()
	return cfg, nil
}

// connect builds a client for the configured backend and makes sure the
// session is authenticated, prompting for the password when none is set.
func connect(ctx context.Context, cfg *config.AppConfig) (*webui.Client, error) {
	client, err := webui.NewClient(webui.Config{
		BaseURL:            cfg.Config.BaseURL,
		Timeout:            cfg.RequestTimeout(),
		InsecureSkipVerify: cfg.Config.InsecureSkipVerify,
		UserAgent:          buildinfo.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(cfg.Config.Username)
	password := cfg.Config.Password
	if username != "" && password == "" {
		user, err := client.Me(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to reach %s: %w", client.BaseURL(), err)
		}
		if user != nil {
			return client, nil
		}
		if password, err = readPassword(fmt.Sprintf("Password for %s: ", username)); err != nil {
			return nil, err
		}
	}

	user, err := client.EnsureSession(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in to %s: %w", client.BaseURL(), err)
	}
	if user == nil {
		return nil, shell.ErrNotAuthenticated
	}

	log.Debug().Str("user", user.Username).Str("url", client.BaseURL()).Msg("authenticated")
	return client, nil
}

// resolveInstance picks an instance by id or label. An empty ref selects the
// first instance.
func resolveInstance(ctx context.Context, client *webui.Client, ref string) (webui.Instance, error) {
	instances, err := client.ListInstances(ctx)
	if err != nil {
		return webui.Instance{}, err
	}

	return shell.NewInstanceSelector(instances).Resolve(ref)
}
