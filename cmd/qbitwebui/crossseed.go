// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maciejonos/qbitwebui/internal/config"
	"github.com/maciejonos/qbitwebui/internal/crossseed"
	"github.com/maciejonos/qbitwebui/pkg/format"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// crossSeedCLI carries the flags shared by the crossseed subcommands.
type crossSeedCLI struct {
	configDir   *string
	instanceRef string
	output      string
}

func (c *crossSeedCLI) structured() bool {
	return !strings.EqualFold(c.output, outputTable)
}

// open loads config and connects. It does not resolve an instance.
func (c *crossSeedCLI) open(ctx context.Context) (*config.AppConfig, *webui.Client, error) {
	cfg, err := loadConfig(*c.configDir, false)
	if err != nil {
		return nil, nil, err
	}
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// openInstance connects and resolves --instance.
func (c *crossSeedCLI) openInstance(ctx context.Context) (*config.AppConfig, *webui.Client, webui.Instance, error) {
	cfg, client, err := c.open(ctx)
	if err != nil {
		return nil, nil, webui.Instance{}, err
	}
	instance, err := resolveInstance(ctx, client, c.instanceRef)
	if err != nil {
		return nil, nil, webui.Instance{}, err
	}
	return cfg, client, instance, nil
}

func RunCrossSeedCommand(configDir *string) *cobra.Command {
	cli := &crossSeedCLI{configDir: configDir}

	command := &cobra.Command{
		Use:     "crossseed",
		Aliases: []string{"cross-seed", "xs"},
		Short:   "Inspect and control cross-seed on an instance",
	}

	command.PersistentFlags().StringVarP(&cli.instanceRef, "instance", "i", "", "instance id or label (defaults to the first)")
	command.PersistentFlags().StringVarP(&cli.output, "output", "o", outputTable, "output format: table, json or yaml")
	command.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return validOutput(cli.output)
	}

	command.AddCommand(cli.statusCommand())
	command.AddCommand(cli.configCommand())
	command.AddCommand(cli.scanCommand())
	command.AddCommand(cli.stopCommand())
	command.AddCommand(cli.cacheCommand())
	command.AddCommand(cli.historyCommand())
	command.AddCommand(cli.decisionsCommand())
	command.AddCommand(cli.logsCommand())
	command.AddCommand(cli.indexersCommand())

	return command
}

func (c *crossSeedCLI) statusCommand() *cobra.Command {
	var all bool

	command := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var statuses []webui.SchedulerStatus
			if all {
				_, client, err := c.open(ctx)
				if err != nil {
					return err
				}
				if statuses, err = client.GetSchedulerStatus(ctx); err != nil {
					return err
				}
			} else {
				_, client, instance, err := c.openInstance(ctx)
				if err != nil {
					return err
				}
				st, err := client.GetInstanceStatus(ctx, instance.ID)
				if err != nil {
					return err
				}
				statuses = []webui.SchedulerStatus{*st}
			}

			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, statuses)
			}
			return renderTable(cmd.OutOrStdout(), []string{"Instance", "Scheduler", "Status", "Interval", "Last Run", "Next", "Last Result"}, statusRows(statuses, time.Now()))
		},
	}

	command.Flags().BoolVar(&all, "all", false, "show every instance")
	return command
}

func statusRows(statuses []webui.SchedulerStatus, now time.Time) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state := "Idle"
		if st.Running {
			state = "Running"
		}
		scheduler := "Off"
		next := "—"
		if st.Enabled {
			scheduler = "On"
			next = format.Countdown(st.NextRun, now, "—")
		}
		rows = append(rows, []string{
			st.InstanceLabel,
			scheduler,
			state,
			fmt.Sprintf("%dh", st.IntervalHours),
			format.Timestamp(st.LastRun),
			next,
			scanSummary(st.LastResult),
		})
	}
	return rows
}

func scanSummary(res *webui.ScanResult) string {
	if res == nil {
		return "—"
	}
	s := fmt.Sprintf("Done: %d matches, %d added", res.MatchesFound, res.TorrentsAdded)
	if res.DryRun {
		s += " (dry run)"
	}
	if len(res.Errors) > 0 {
		s += fmt.Sprintf(", %d errors", len(res.Errors))
	}
	return s
}

func (c *crossSeedCLI) configCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Show or change the cross-seed configuration",
	}
	command.AddCommand(c.configGetCommand())
	command.AddCommand(c.configSetCommand())
	return command
}

func (c *crossSeedCLI) configGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			cfg, err := client.GetCrossSeedConfig(ctx, instance.ID)
			if err != nil {
				return err
			}
			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, cfg)
			}
			return renderTable(cmd.OutOrStdout(), []string{"Setting", "Value"}, configRows(*cfg))
		},
	}
}

func configRows(cfg webui.CrossSeedConfig) [][]string {
	onOff := func(v bool) string {
		if v {
			return "On"
		}
		return "Off"
	}
	integration := "None"
	if cfg.HasIntegration() {
		integration = strconv.Itoa(*cfg.IntegrationID)
	}
	indexers := make([]string, len(cfg.IndexerIDs))
	for i, id := range cfg.IndexerIDs {
		indexers[i] = strconv.Itoa(id)
	}
	linkDir := "—"
	if cfg.LinkDir != nil {
		linkDir = *cfg.LinkDir
	}

	return [][]string{
		{"Enabled", onOff(cfg.Enabled)},
		{"Interval", fmt.Sprintf("%dh", cfg.IntervalHours)},
		{"Delay", fmt.Sprintf("%ds", cfg.DelaySeconds)},
		{"Dry Run", onOff(cfg.DryRun)},
		{"Category Suffix", cfg.CategorySuffix},
		{"Tag", cfg.Tag},
		{"Skip Recheck", onOff(cfg.SkipRecheck)},
		{"Integration", integration},
		{"Indexers", strings.Join(indexers, ", ")},
		{"Match Mode", string(cfg.MatchMode)},
		{"Link Directory", linkDir},
		{"Blocklist", crossseed.FormatBlocklistText(cfg.Blocklist)},
		{"Single Episodes", onOff(cfg.IncludeSingleEpisodes)},
		{"Last Run", format.Timestamp(cfg.LastRun)},
		{"Next Run", format.Timestamp(cfg.NextRun)},
	}
}

// configFlags holds the raw values of config set. Only flags that were set
// end up in the patch.
type configFlags struct {
	enabled        bool
	interval       string
	delay          string
	dryRun         bool
	categorySuffix string
	tag            string
	skipRecheck    bool
	integration    int
	indexers       []int
	matchMode      string
	linkDir        string
	blocklist      []string
	blocklistFile  string
	singleEpisodes bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.enabled, "enabled", false, "enable the scheduler")
	fl.StringVar(&f.interval, "interval", "", "hours between scheduled scans")
	fl.StringVar(&f.delay, "delay", "", "seconds between searches (30-3600)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "match without adding torrents")
	fl.StringVar(&f.categorySuffix, "category-suffix", "", "suffix for the category of added torrents")
	fl.StringVar(&f.tag, "tag", "", "tag for added torrents")
	fl.BoolVar(&f.skipRecheck, "skip-recheck", false, "skip the hash check of added torrents")
	fl.IntVar(&f.integration, "integration", 0, "Prowlarr integration id (0 clears it)")
	fl.IntSliceVar(&f.indexers, "indexers", nil, "indexer ids to search")
	fl.StringVar(&f.matchMode, "match-mode", "", "strict or flexible")
	fl.StringVar(&f.linkDir, "link-dir", "", "link directory for flexible matches (empty clears it)")
	fl.StringArrayVar(&f.blocklist, "blocklist", nil, "blocklist rule, repeatable (type:value)")
	fl.StringVar(&f.blocklistFile, "blocklist-file", "", "read blocklist rules from a file, one per line")
	fl.BoolVar(&f.singleEpisodes, "single-episodes", false, "include single episodes")
}

func (f *configFlags) patch(cmd *cobra.Command) (webui.ConfigPatch, error) {
	changed := cmd.Flags().Changed
	var p webui.ConfigPatch

	if changed("enabled") {
		p.Enabled = &f.enabled
	}
	if changed("interval") {
		v := crossseed.ParseIntervalHours(f.interval)
		p.IntervalHours = &v
	}
	if changed("delay") {
		v := crossseed.ParseDelaySeconds(f.delay)
		p.DelaySeconds = &v
	}
	if changed("dry-run") {
		p.DryRun = &f.dryRun
	}
	if changed("category-suffix") {
		p.CategorySuffix = &f.categorySuffix
	}
	if changed("tag") {
		p.Tag = &f.tag
	}
	if changed("skip-recheck") {
		p.SkipRecheck = &f.skipRecheck
	}
	if changed("integration") {
		if f.integration > 0 {
			p.IntegrationID = webui.Some(f.integration)
		} else {
			p.IntegrationID = webui.Null[int]()
		}
	}
	if changed("indexers") {
		p.IndexerIDs = append([]int{}, f.indexers...)
	}
	if changed("match-mode") {
		mode := webui.MatchMode(strings.ToLower(f.matchMode))
		if mode != webui.MatchModeStrict && mode != webui.MatchModeFlexible {
			return p, fmt.Errorf("invalid match mode %q: want strict or flexible", f.matchMode)
		}
		p.MatchMode = &mode
	}
	if changed("link-dir") {
		p.LinkDir = webui.Some(strings.TrimSpace(f.linkDir))
	}
	switch {
	case changed("blocklist-file"):
		data, err := os.ReadFile(f.blocklistFile)
		if err != nil {
			return p, fmt.Errorf("failed to read blocklist file: %w", err)
		}
		p.Blocklist = crossseed.ParseBlocklistText(string(data))
	case changed("blocklist"):
		p.Blocklist = crossseed.ParseBlocklistText(strings.Join(f.blocklist, "\n"))
	}
	if changed("single-episodes") {
		p.IncludeSingleEpisodes = &f.singleEpisodes
	}
	return p, nil
}

func (c *crossSeedCLI) configSetCommand() *cobra.Command {
	flags := &configFlags{}

	command := &cobra.Command{
		Use:   "set",
		Short: "Change configuration values",
		Example: `  qbitwebui crossseed config set -i seedbox --enabled --interval 12
  qbitwebui crossseed config set --match-mode flexible --link-dir /data/links
  qbitwebui crossseed config set --blocklist name:sample --blocklist sizeBelow:52428800`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}

			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			current, err := client.GetCrossSeedConfig(ctx, instance.ID)
			if err != nil {
				return err
			}
			next := current.Apply(patch)

			if err := crossseed.ValidateBlocklist(next.Blocklist); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: blocklist rules the scanner will ignore:\n%s\n", err)
			}

			res, err := client.UpdateCrossSeedConfig(ctx, instance.ID, next.Update())
			if err != nil {
				return err
			}
			if res.LinkDirValid != nil && !*res.LinkDirValid {
				fmt.Fprintln(cmd.ErrOrStderr(), "Link directory not writable")
				return nil
			}
			cmd.Println("Saved")
			return nil
		},
	}

	flags.register(command)
	return command
}

func (c *crossSeedCLI) scanCommand() *cobra.Command {
	var force bool

	command := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan and wait for the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			res, err := client.TriggerScan(ctx, instance.ID, force)
			if err != nil {
				return err
			}
			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, res)
			}

			cmd.Println(scanSummary(res))
			cmd.Printf("Scanned %d of %d torrents (%d skipped) in %s\n",
				res.TorrentsScanned, res.TorrentsTotal, res.TorrentsSkipped,
				format.Duration((res.CompletedAt-res.StartedAt)/1000))
			for _, e := range res.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", e)
			}
			return nil
		},
	}

	command.Flags().BoolVar(&force, "force", false, "rescan torrents that were searched before")
	return command
}

func (c *crossSeedCLI) stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			if _, err := client.StopScan(ctx, instance.ID); err != nil {
				return err
			}
			cmd.Println("Stopped")
			return nil
		},
	}
}

func (c *crossSeedCLI) cacheCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cross-seed torrent cache",
	}

	command.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			stats, err := client.GetCacheStats(ctx, instance.ID)
			if err != nil {
				return err
			}
			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, stats)
			}
			cmd.Printf("Cache: %d torrents (%s)\n", stats.Cache.Count, format.Size(stats.Cache.TotalSize))
			cmd.Printf("Output: %d files\n", stats.Output.Count)
			for _, f := range stats.Output.Files {
				cmd.Println("  " + f)
			}
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete cached and output torrents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			res, err := client.ClearCache(ctx, instance.ID)
			if err != nil {
				return err
			}
			cmd.Printf("Cleared %d files\n", res.Total())
			return nil
		},
	})

	return command
}

func (c *crossSeedCLI) historyCommand() *cobra.Command {
	var (
		limit  int
		offset int
		filter string
	)

	command := &cobra.Command{
		Use:   "history",
		Short: "List searched torrents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			history, err := client.GetSearchHistory(ctx, instance.ID, limit, offset)
			if err != nil {
				return err
			}
			searchees := filterSearchees(history.Searchees, filter)

			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, searchees)
			}

			now := time.Now()
			rows := make([][]string, 0, len(searchees))
			for _, s := range searchees {
				rows = append(rows, []string{
					strconv.Itoa(s.ID),
					s.TorrentName,
					format.Size(s.TotalSize),
					strconv.Itoa(s.FileCount),
					format.RelativeTime(s.LastSearched, now),
					strconv.Itoa(s.DecisionCount),
				})
			}
			if err := renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Size", "Files", "Last Searched", "Decisions"}, rows); err != nil {
				return err
			}
			cmd.Printf("%d of %d\n", len(searchees), history.Total)
			return nil
		},
	}

	command.Flags().IntVar(&limit, "limit", 100, "maximum entries")
	command.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	command.Flags().StringVarP(&filter, "filter", "f", "", "fuzzy filter on torrent name")
	return command
}

// filterSearchees keeps searchees whose name fuzzy-matches filter, best
// matches first.
func filterSearchees(searchees []webui.Searchee, filter string) []webui.Searchee {
	filter = format.NormalizeSearch(filter)
	if filter == "" {
		return searchees
	}

	names := make([]string, len(searchees))
	for i, s := range searchees {
		names[i] = format.NormalizeSearch(s.TorrentName)
	}
	ranks := fuzzy.RankFindNormalizedFold(filter, names)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})

	out := make([]webui.Searchee, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, searchees[r.OriginalIndex])
	}
	return out
}

func (c *crossSeedCLI) decisionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decisions <searchee-id>",
		Short: "Show the match decisions for a searched torrent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searcheeID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid searchee id %q", args[0])
			}

			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}
			decisions, err := client.GetDecisions(ctx, instance.ID, searcheeID)
			if err != nil {
				return err
			}
			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, decisions)
			}

			now := time.Now()
			rows := make([][]string, 0, len(decisions))
			for _, d := range decisions {
				size := "—"
				if d.CandidateSize != nil {
					size = format.Size(*d.CandidateSize)
				}
				rows = append(rows, []string{d.Decision, d.CandidateName, size, format.RelativeTime(d.LastSeen, now)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Decision", "Candidate", "Size", "Last Seen"}, rows)
		},
	}
}

func (c *crossSeedCLI) logsCommand() *cobra.Command {
	var (
		limit  int
		follow bool
	)

	command := &cobra.Command{
		Use:   "logs",
		Short: "Print the cross-seed log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, client, err := c.open(ctx)
			if err != nil {
				return err
			}

			width := 0
			if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				if w, _, err := term.GetSize(int(f.Fd())); err == nil {
					width = w
				}
			}
			tail := &logTail{out: cmd.OutOrStdout(), width: width}

			entries, err := client.GetLogs(ctx, limit)
			if err != nil {
				return err
			}
			if c.structured() && !follow {
				return writeStructured(cmd.OutOrStdout(), c.output, entries)
			}
			tail.write(entries)
			if !follow {
				return nil
			}

			ticker := time.NewTicker(cfg.PollInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
				entries, err := client.GetLogs(ctx, limit)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					fmt.Fprintln(cmd.ErrOrStderr(), "log poll failed:", err)
					continue
				}
				tail.write(entries)
			}
		},
	}

	command.Flags().IntVarP(&limit, "limit", "n", 200, "entries to fetch")
	command.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling for new entries")
	return command
}

// logTail prints entries it has not printed yet. The server returns a
// rolling window, so the last printed entry is located in each new window.
type logTail struct {
	out   io.Writer
	width int
	last  *webui.LogEntry
}

func (t *logTail) write(entries []webui.LogEntry) {
	start := 0
	if t.last != nil {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i] == *t.last {
				start = i + 1
				break
			}
		}
	}
	for _, e := range entries[start:] {
		line := fmt.Sprintf("%s [%s] %s", e.Clock(), e.Level, e.Message)
		if t.width > 0 {
			line = ansi.Truncate(line, t.width, "…")
		}
		fmt.Fprintln(t.out, line)
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		t.last = &last
	}
}

func (c *crossSeedCLI) indexersCommand() *cobra.Command {
	var integrationID int

	command := &cobra.Command{
		Use:   "indexers",
		Short: "List indexers of a Prowlarr integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, client, instance, err := c.openInstance(ctx)
			if err != nil {
				return err
			}

			var selected []int
			if integrationID == 0 {
				cfg, err := client.GetCrossSeedConfig(ctx, instance.ID)
				if err != nil {
					return err
				}
				if !cfg.HasIntegration() {
					return errors.New("no integration configured; pass --integration")
				}
				integrationID = *cfg.IntegrationID
				selected = cfg.IndexerIDs
			}

			indexers, err := client.GetIndexers(ctx, instance.ID, integrationID)
			if err != nil {
				return err
			}
			if c.structured() {
				return writeStructured(cmd.OutOrStdout(), c.output, indexers)
			}

			rows := make([][]string, 0, len(indexers))
			for _, idx := range indexers {
				mark := ""
				if slices.Contains(selected, idx.ID) {
					mark = "x"
				}
				rows = append(rows, []string{mark, strconv.Itoa(idx.ID), idx.Name, idx.Protocol, strconv.FormatBool(idx.SupportsSearch)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"", "ID", "Name", "Protocol", "Search"}, rows)
		},
	}

	command.Flags().IntVar(&integrationID, "integration", 0, "integration id (defaults to the configured one)")
	return command
}
