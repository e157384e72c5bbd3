package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/floodchat"
	"github.com/spf13/viper"
)

const defaultConfigDir = ".floodchat"

type config struct {
	BaseURL string      `mapstructure:"base_url"`
	Token   string      `mapstructure:"token"`
	Log     logConfig   `mapstructure:"log"`
	Chat    chatConfig  `mapstructure:"chat"`
	Agent   agentConfig `mapstructure:"agent"`

	// Set when the temperature and watershed keys were given at all;
	// zero is a meaningful value for neither flag.
	hasTemperature bool
	hasWatershed   bool
}

type logConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type chatConfig struct {
	Provider    string         `mapstructure:"provider"`
	Model       string         `mapstructure:"model"`
	Temperature float64        `mapstructure:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	WatershedID int            `mapstructure:"watershed_id"`
	UseAgent    bool           `mapstructure:"use_agent"`
	Context     map[string]any `mapstructure:"context"`
}

type agentConfig struct {
	Type          string `mapstructure:"type"`
	Location      string `mapstructure:"location"`
	ForecastHours int    `mapstructure:"forecast_hours"`
	Scenario      string `mapstructure:"scenario"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("token", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("chat.provider", "auto")
	v.SetDefault("chat.model", "")
	v.SetDefault("chat.max_tokens", 0)
	v.SetDefault("chat.use_agent", false)
	v.SetDefault("agent.type", floodchat.DefaultAgentType)
	v.SetDefault("agent.location", floodchat.DefaultLocation)
	v.SetDefault("agent.forecast_hours", floodchat.DefaultForecastHours)
	v.SetDefault("agent.scenario", floodchat.DefaultScenario)
}

// loadConfig reads the config file, if any, and resolves every key from
// flags, FLOODCHAT_* environment variables, the file and defaults, in that
// order. An explicit path that does not exist is an error; the default
// path is optional.
func loadConfig(v *viper.Viper, path, home string) (config, error) {
	v.SetEnvPrefix("FLOODCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(home, defaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.hasTemperature = v.IsSet("chat.temperature")
	cfg.hasWatershed = v.IsSet("chat.watershed_id") && cfg.Chat.WatershedID != 0
	return cfg, nil
}

// chatRequest builds a plain dialect request for prompt.
func (c config) chatRequest(prompt string) floodchat.ChatRequest {
	req := floodchat.ChatRequest{
		Message:   prompt,
		Provider:  c.Chat.Provider,
		Model:     c.Chat.Model,
		MaxTokens: c.Chat.MaxTokens,
		Context:   c.Chat.Context,
		UseAgent:  c.Chat.UseAgent,
	}
	if c.hasTemperature {
		t := c.Chat.Temperature
		req.Temperature = &t
	}
	if c.hasWatershed {
		id := c.Chat.WatershedID
		req.WatershedID = &id
	}
	return req
}

// agentRequest builds an agent dialect request for prompt.
func (c config) agentRequest(prompt, customPrompt string) floodchat.AgentRequest {
	return floodchat.AgentRequest{
		Message:       prompt,
		AgentType:     c.Agent.Type,
		Location:      c.Agent.Location,
		ForecastHours: c.Agent.ForecastHours,
		Scenario:      c.Agent.Scenario,
		CustomPrompt:  customPrompt,
	}
}

// newLogger builds the diagnostics logger. With no log file the logger
// writes to fallback, which is nil when the terminal belongs to the TUI.
// The returned closer releases the log file.
func newLogger(cfg logConfig, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, floodchat.ErrValidation)
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.File == "" {
		if fallback == nil {
			return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
		}
		return slog.New(slog.NewTextHandler(fallback, opts)), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}
