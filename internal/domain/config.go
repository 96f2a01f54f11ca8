// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config is the console's runtime configuration as loaded from config.toml
// and QBITWEBUI__ environment overrides.
type Config struct {
	Version string `mapstructure:"-"`

	BaseURL            string `toml:"baseUrl" mapstructure:"baseUrl"`
	Username           string `toml:"username" mapstructure:"username"`
	Password           string `toml:"password" mapstructure:"password"`
	InsecureSkipVerify bool   `toml:"insecureSkipVerify" mapstructure:"insecureSkipVerify"`
	RequestTimeout     int    `toml:"requestTimeout" mapstructure:"requestTimeout"`

	PollInterval int    `toml:"pollInterval" mapstructure:"pollInterval"`
	LogLimit     int    `toml:"logLimit" mapstructure:"logLimit"`
	SuccessClear int    `toml:"successClear" mapstructure:"successClear"`
	Layout       string `toml:"layout" mapstructure:"layout"`
	Theme        string `toml:"theme" mapstructure:"theme"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`

	CheckForUpdates  bool   `toml:"checkForUpdates" mapstructure:"checkForUpdates"`
	UpdateRepository string `toml:"updateRepository" mapstructure:"updateRepository"`

	DevServerHost string `toml:"devServerHost" mapstructure:"devServerHost"`
	DevServerPort int    `toml:"devServerPort" mapstructure:"devServerPort"`
}
