// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/maciejonos/qbitwebui/internal/domain"
)

var envPrefix = "QBITWEBUI__"

const (
	LayoutAuto    = "auto"
	LayoutWide    = "wide"
	LayoutCompact = "compact"
)

type AppConfig struct {
	Config  *domain.Config
	viper   *viper.Viper
	version string

	// quiet keeps log output off stderr, the terminal belongs to the console UI.
	quiet bool

	listenersMu sync.RWMutex
	listeners   []func(*domain.Config)
}

func New(configDirOrPath string, versions ...string) (*AppConfig, error) {
	version := "dev"
	if len(versions) > 0 && strings.TrimSpace(versions[0]) != "" {
		version = versions[0]
	}

	c := &AppConfig{
		viper:   viper.New(),
		Config:  &domain.Config{},
		version: version,
	}

	c.defaults()

	if err := c.load(configDirOrPath); err != nil {
		return nil, err
	}

	c.loadDotEnv()
	c.loadFromEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.Config.Version = c.version
	c.normalize()

	c.watchConfig()

	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("baseUrl", "http://localhost:3000")
	c.viper.SetDefault("username", "")
	c.viper.SetDefault("password", "")
	c.viper.SetDefault("insecureSkipVerify", false)
	c.viper.SetDefault("requestTimeout", 0)
	c.viper.SetDefault("pollInterval", 2000)
	c.viper.SetDefault("logLimit", 200)
	c.viper.SetDefault("successClear", 2000)
	c.viper.SetDefault("layout", LayoutAuto)
	c.viper.SetDefault("theme", "default")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9075)
	c.viper.SetDefault("checkForUpdates", true)
	c.viper.SetDefault("updateRepository", "Maciejonos/qbitwebui")
	c.viper.SetDefault("devServerHost", "localhost")
	c.viper.SetDefault("devServerPort", 3000)
}

func (c *AppConfig) load(configDirOrPath string) error {
	c.viper.SetConfigType("toml")

	if configDirOrPath != "" {
		configPath := resolveConfigPath(configDirOrPath)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := c.writeDefaultConfig(configPath); err != nil {
				return err
			}
		}

		c.viper.SetConfigFile(configPath)
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	c.viper.SetConfigName("config")
	c.viper.AddConfigPath(".")
	c.viper.AddConfigPath(GetDefaultConfigDir())

	if err := c.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultConfigPath := filepath.Join(GetDefaultConfigDir(), "config.toml")
			if err := c.writeDefaultConfig(defaultConfigPath); err != nil {
				return err
			}
			c.viper.SetConfigFile(defaultConfigPath)
			if err := c.viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read newly created config: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

// loadDotEnv reads a .env file next to the config file, if present. Variables
// already set in the process environment win.
func (c *AppConfig) loadDotEnv() {
	path := filepath.Join(c.GetConfigDir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to load .env file")
	}
}

func (c *AppConfig) loadFromEnv() {
	// Explicit binds only, AutomaticEnv would pick up unrelated variables.
	c.viper.BindEnv("baseUrl", envPrefix+"BASE_URL")
	c.viper.BindEnv("username", envPrefix+"USERNAME")
	c.bindOrReadFromFile("password", envPrefix+"PASSWORD")
	c.viper.BindEnv("insecureSkipVerify", envPrefix+"INSECURE_SKIP_VERIFY")
	c.viper.BindEnv("requestTimeout", envPrefix+"REQUEST_TIMEOUT")
	c.viper.BindEnv("pollInterval", envPrefix+"POLL_INTERVAL")
	c.viper.BindEnv("logLimit", envPrefix+"LOG_LIMIT")
	c.viper.BindEnv("successClear", envPrefix+"SUCCESS_CLEAR")
	c.viper.BindEnv("layout", envPrefix+"LAYOUT")
	c.viper.BindEnv("theme", envPrefix+"THEME")
	c.viper.BindEnv("logLevel", envPrefix+"LOG_LEVEL")
	c.viper.BindEnv("logPath", envPrefix+"LOG_PATH")
	c.viper.BindEnv("logMaxSize", envPrefix+"LOG_MAX_SIZE")
	c.viper.BindEnv("logMaxBackups", envPrefix+"LOG_MAX_BACKUPS")
	c.viper.BindEnv("metricsEnabled", envPrefix+"METRICS_ENABLED")
	c.viper.BindEnv("metricsHost", envPrefix+"METRICS_HOST")
	c.viper.BindEnv("metricsPort", envPrefix+"METRICS_PORT")
	c.viper.BindEnv("checkForUpdates", envPrefix+"CHECK_FOR_UPDATES")
	c.viper.BindEnv("updateRepository", envPrefix+"UPDATE_REPOSITORY")
	c.viper.BindEnv("devServerHost", envPrefix+"DEV_SERVER_HOST")
	c.viper.BindEnv("devServerPort", envPrefix+"DEV_SERVER_PORT")
}

// normalize clamps values that would otherwise break the pollers or timers.
func (c *AppConfig) normalize() {
	c.Config.BaseURL = strings.TrimRight(strings.TrimSpace(c.Config.BaseURL), "/")
	if c.Config.PollInterval < 250 {
		c.Config.PollInterval = 2000
	}
	if c.Config.LogLimit <= 0 {
		c.Config.LogLimit = 200
	}
	if c.Config.SuccessClear <= 0 {
		c.Config.SuccessClear = 2000
	}
	if c.Config.RequestTimeout < 0 {
		c.Config.RequestTimeout = 0
	}
	switch strings.ToLower(c.Config.Layout) {
	case LayoutWide, LayoutCompact:
		c.Config.Layout = strings.ToLower(c.Config.Layout)
	default:
		c.Config.Layout = LayoutAuto
	}
}

func (c *AppConfig) watchConfig() {
	if c.viper.ConfigFileUsed() == "" {
		return
	}

	c.viper.WatchConfig()
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Msgf("Config file changed: %s", e.Name)

		if err := c.viper.Unmarshal(c.Config); err != nil {
			log.Error().Err(err).Msg("Failed to reload configuration")
			return
		}

		c.applyDynamicChanges()
	})
}

func (c *AppConfig) applyDynamicChanges() {
	c.Config.Version = c.version
	c.normalize()
	c.ApplyLogConfig()

	c.notifyListeners()
}

// RegisterReloadListener registers a callback that's invoked when the configuration file is reloaded.
func (c *AppConfig) RegisterReloadListener(fn func(*domain.Config)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *AppConfig) notifyListeners() {
	c.listenersMu.RLock()
	listeners := append([]func(*domain.Config){}, c.listeners...)
	c.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	copied := *c.Config
	for _, listener := range listeners {
		listener(&copied)
	}
}

const configTemplate = `# config.toml - Auto-generated on first run

# qbitwebui backend URL
# Default: "{{ .baseUrl }}"
baseUrl = "{{ .baseUrl }}"

# Credentials used to log in to the backend
# The password can also be provided with QBITWEBUI__PASSWORD or QBITWEBUI__PASSWORD_FILE
#username = "admin"
#password = ""

# Skip TLS certificate verification for self-signed backends
#insecureSkipVerify = false

# Per request timeout in seconds, 0 disables it
#requestTimeout = 0

# Status and log poll interval in milliseconds
# Default: {{ .pollInterval }}
#pollInterval = {{ .pollInterval }}

# Number of cross-seed log entries to tail
# Default: {{ .logLimit }}
#logLimit = {{ .logLimit }}

# How long success messages stay visible, in milliseconds
# Default: {{ .successClear }}
#successClear = {{ .successClear }}

# Console layout
# Options: "auto", "wide", "compact"
#layout = "auto"

# Color theme
# Options: "default", "catppuccin", "nord", "mono"
#theme = "default"

# Log file path
# The console UI only logs to this file. Other commands also log to stderr.
#logPath = "log/qbitwebui.log"

# Log rotation
# Default: {{ .logMaxSize }}
#logMaxSize = {{ .logMaxSize }}

# Default: {{ .logMaxBackups }}
#logMaxBackups = {{ .logMaxBackups }}

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "{{ .logLevel }}"

# Prometheus Metrics
#metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9075

# Check GitHub for new releases
#checkForUpdates = true
#updateRepository = "Maciejonos/qbitwebui"

# Address of the local development backend (qbitwebui dev-server)
#devServerHost = "localhost"
#devServerPort = 3000
`

func (c *AppConfig) writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		log.Debug().Msgf("Config file already exists at: %s", path)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	data := map[string]any{
		"baseUrl":       c.viper.GetString("baseUrl"),
		"pollInterval":  c.viper.GetInt("pollInterval"),
		"logLimit":      c.viper.GetInt("logLimit"),
		"successClear":  c.viper.GetInt("successClear"),
		"logLevel":      c.viper.GetString("logLevel"),
		"logMaxSize":    c.viper.GetInt("logMaxSize"),
		"logMaxBackups": c.viper.GetInt("logMaxBackups"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse config template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Msgf("Created default config file: %s", path)
	return nil
}

// GetDefaultConfigDir returns the OS-specific config directory
func GetDefaultConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if xdgConfig == "/config" {
			return xdgConfig
		}
		return filepath.Join(xdgConfig, "qbitwebui")
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "qbitwebui")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "qbitwebui")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "qbitwebui")
	}
}

// SetQuiet routes log output to the log file only. Used by the console UI.
func (c *AppConfig) SetQuiet(quiet bool) {
	c.quiet = quiet
}

func (c *AppConfig) ApplyLogConfig() {
	zerolog.TimeFieldFormat = time.RFC3339

	setLogLevel(c.Config.LogLevel)

	var writer io.Writer = c.baseLogWriter()
	if c.quiet {
		writer = io.Discard
	}

	if c.Config.LogPath != "" {
		multiWriter, err := setupLogFile(c.Config.LogPath, writer, c.Config.LogMaxSize, c.Config.LogMaxBackups)
		if err != nil {
			log.Error().Err(err).Msg("Failed to setup log file")
		} else {
			writer = multiWriter
		}
	}

	log.Logger = log.Logger.Output(writer)
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Logger.Level(lvl)
}

func setupLogFile(path string, base io.Writer, maxSize, maxBackups int) (io.Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if maxSize <= 0 {
		maxSize = 50
	}

	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	if base == io.Discard {
		return rotator, nil
	}
	return io.MultiWriter(base, rotator), nil
}

func baseLogWriter(version string) io.Writer {
	if isDevBuild(version) {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		writer.PartsOrder = []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName}
		return writer
	}
	return os.Stderr
}

func (c *AppConfig) baseLogWriter() io.Writer {
	return baseLogWriter(c.version)
}

// InitDefaultLogger configures zerolog with the default writer for this version.
// This is used by CLI entry points before a configuration file is loaded.
func InitDefaultLogger(version string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Logger.Output(baseLogWriter(version))
}

func isDevBuild(version string) bool {
	v := strings.ToLower(strings.TrimSpace(version))
	return v == "" || v == "dev" || strings.HasSuffix(v, "-dev")
}

// resolveConfigPath determines the actual config file path from the provided directory or file path
func resolveConfigPath(configDirOrPath string) string {
	if strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml") {
		return configDirOrPath
	}

	if info, err := os.Stat(configDirOrPath); err == nil && !info.IsDir() {
		return configDirOrPath
	}

	return filepath.Join(configDirOrPath, "config.toml")
}

// ResolveConfigPath is the exported form used by generate-config.
func ResolveConfigPath(configDirOrPath string) string {
	if configDirOrPath == "" {
		return filepath.Join(GetDefaultConfigDir(), "config.toml")
	}
	return resolveConfigPath(configDirOrPath)
}

// GetConfigDir returns the directory containing the config file
func (c *AppConfig) GetConfigDir() string {
	if c.viper != nil && c.viper.ConfigFileUsed() != "" {
		return filepath.Dir(c.viper.ConfigFileUsed())
	}
	return GetDefaultConfigDir()
}

// PollInterval returns the status/log poll interval.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Config.PollInterval) * time.Millisecond
}

// SuccessClearDelay returns how long success messages stay visible.
func (c *AppConfig) SuccessClearDelay() time.Duration {
	return time.Duration(c.Config.SuccessClear) * time.Millisecond
}

// RequestTimeout returns the HTTP client timeout, zero meaning none.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Config.RequestTimeout) * time.Second
}

func WriteDefaultConfig(path string) error {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults()

	return c.writeDefaultConfig(path)
}

// Sets viper variable if environment variable with _FILE suffix is present
func (c *AppConfig) bindOrReadFromFile(viperVar string, envVar string) {
	if filePath := os.Getenv(envVar + "_FILE"); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", filePath).Msg("Could not read " + envVar + "_FILE")
		}
		c.viper.Set(viperVar, strings.TrimSpace(string(content)))
		return
	}
	c.viper.BindEnv(viperVar, envVar)
}
