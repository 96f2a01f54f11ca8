// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maciejonos/qbitwebui/internal/devserver"
)

func RunDevServerCommand(configDir *string) *cobra.Command {
	var (
		host     string
		port     int
		seed     bool
		username string
		password string
	)

	command := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory backend for local development",
		Long: `Run an in-memory stand-in for the qbitwebui backend.

It serves the cross-seed, instance, integration and auth endpoints. With
--seed it starts with two instances, a Prowlarr integration and some history.
Point baseUrl at it to try the console without a real backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir, false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("host") {
				host = cfg.Config.DevServerHost
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Config.DevServerPort
			}

			backend := devserver.NewBackend()
			if seed {
				backend = devserver.NewSeededBackend()
			}
			if username != "" {
				if password == "" {
					if password, err = readPassword("Password for dev-server user: "); err != nil {
						return err
					}
				}
				backend.SetCredentials(username, password)
			}

			server := devserver.NewServer(&devserver.Dependencies{
				Host:    host,
				Port:    port,
				Backend: backend,
			})

			errorChannel := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errorChannel <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				log.Info().Msg("shutting down dev server")
			case err := <-errorChannel:
				return errors.Wrap(err, "dev server failed")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "dev server shutdown")
			}
			return nil
		},
	}

	command.Flags().StringVar(&host, "host", "localhost", "listen host (overrides devServerHost)")
	command.Flags().IntVar(&port, "port", 3000, "listen port (overrides devServerPort)")
	command.Flags().BoolVar(&seed, "seed", true, "start with sample instances and history")
	command.Flags().StringVar(&username, "username", "", "require login with this user")
	command.Flags().StringVar(&password, "password", "", "password for --username (prompted when empty)")

	return command
}
