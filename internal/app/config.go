// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     app
// Description: Application configuration and persistence
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the persisted application configuration
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Activation ActivationConfig `toml:"activation"`
	Audio      AudioConfig      `toml:"audio"`
	Speech     SpeechConfig     `toml:"speech"`
	Generation GenerationConfig `toml:"generation"`
	Output     OutputConfig     `toml:"output"`
}

// GeneralConfig holds cross-cutting settings
type GeneralConfig struct {
	Language  string `toml:"language"`   // zh, en, de
	LogLevel  string `toml:"log_level"`  // debug, info, warn, error
	LogFormat string `toml:"log_format"` // text, json
}

// ActivationConfig holds hotkey settings
type ActivationConfig struct {
	Policy        string `toml:"policy"` // longpress, doubletap, toggle
	Shortcut      string `toml:"shortcut"`
	TapIntervalMs int    `toml:"tap_interval_ms"`
}

// AudioConfig holds microphone settings
type AudioConfig struct {
	Device          string `toml:"device"`
	SampleRate      int    `toml:"sample_rate"`
	SilenceLimitMs  int    `toml:"silence_limit_ms"` // 0 disables auto-stop
	VADMode         int    `toml:"vad_mode"`
	TrimSilence     bool   `toml:"trim_silence"`
	FramesPerBuffer int    `toml:"frames_per_buffer"`
}

// SpeechConfig holds transcription settings
type SpeechConfig struct {
	Engine    string `toml:"engine"` // whisper, stream
	Model     string `toml:"model"`
	StreamURL string `toml:"stream_url"`
	Threads   int    `toml:"threads"`
}

// GenerationConfig holds rewrite settings
type GenerationConfig struct {
	Enabled          bool   `toml:"enabled"`
	Engine           string `toml:"engine"` // ollama, remote
	OllamaURL        string `toml:"ollama_url"`
	OllamaModel      string `toml:"ollama_model"`
	APIFormat        string `toml:"api_format"` // openai, anthropic
	BaseURL          string `toml:"base_url"`
	APIKeyEnv        string `toml:"api_key_env"`
	Model            string `toml:"model"`
	StylePrompt      string `toml:"style_prompt"`
	UseScreenContext bool   `toml:"use_screen_context"`
	RecentInputCount int    `toml:"recent_input_count"`
}

// OutputConfig holds insertion settings
type OutputConfig struct {
	TargetApp string `toml:"target_app"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Language:  "zh",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Activation: ActivationConfig{
			Policy:        "longpress",
			Shortcut:      "ctrl+shift+d",
			TapIntervalMs: 400,
		},
		Audio: AudioConfig{
			Device:          "",
			SampleRate:      16000,
			SilenceLimitMs:  0,
			VADMode:         2,
			TrimSilence:     true,
			FramesPerBuffer: 512,
		},
		Speech: SpeechConfig{
			Engine:  "whisper",
			Model:   "large-v3-turbo",
			Threads: 4,
		},
		Generation: GenerationConfig{
			Enabled:          true,
			Engine:           "ollama",
			OllamaURL:        "http://localhost:11434",
			OllamaModel:      "qwen2.5:3b",
			APIFormat:        "openai",
			APIKeyEnv:        "CICERO_API_KEY",
			UseScreenContext: false,
			RecentInputCount: 5,
		},
		Output: OutputConfig{},
	}
}

// ConfigDir returns the directory holding config.toml and the personal
// dictionary
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory unavailable: %w", err)
	}
	return filepath.Join(home, ".config", "cicero"), nil
}

// DataDir returns the directory holding downloaded models and the
// history database
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory unavailable: %w", err)
	}
	return filepath.Join(home, ".local", "share", "cicero"), nil
}

// LoadConfig reads config.toml from dir, falling back to defaults for a
// missing file. Unknown keys are ignored so older binaries tolerate
// newer files.
func LoadConfig(dir string) (Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to dir/config.toml
func SaveConfig(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "config.toml"))
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// APIKey resolves the remote engine key from the configured environment
// variable. The key itself never lands in the config file.
func (g GenerationConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}
