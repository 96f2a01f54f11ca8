// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/maciejonos/qbitwebui/pkg/format"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

func RunInstancesCommand(configDir *string) *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "instances",
		Short: "List qBittorrent instances and integrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configDir, false)
			if err != nil {
				return err
			}
			client, err := connect(ctx, cfg)
			if err != nil {
				return err
			}

			instances, err := client.ListInstances(ctx)
			if err != nil {
				return err
			}
			integrations, err := client.ListIntegrations(ctx)
			if err != nil {
				return err
			}

			if err := validOutput(output); err != nil {
				return err
			}
			if !strings.EqualFold(output, outputTable) {
				return writeStructured(cmd.OutOrStdout(), output, struct {
					Instances    []webui.Instance    `json:"instances"`
					Integrations []webui.Integration `json:"integrations"`
				}{instances, integrations})
			}

			now := time.Now()
			rows := make([][]string, 0, len(instances))
			for _, in := range instances {
				rows = append(rows, []string{strconv.Itoa(in.ID), in.Label, in.URL, in.QBTUsername, format.RelativeDate(in.CreatedAt, now)})
			}
			if err := renderTable(cmd.OutOrStdout(), []string{"ID", "Label", "URL", "User", "Added"}, rows); err != nil {
				return err
			}

			if len(integrations) == 0 {
				return nil
			}
			rows = rows[:0]
			for _, in := range integrations {
				rows = append(rows, []string{strconv.Itoa(in.ID), in.Label, in.Type, in.URL})
			}
			return renderTable(cmd.OutOrStdout(), []string{"ID", "Integration", "Type", "URL"}, rows)
		},
	}

	command.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return command
}
