package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig
	Project ProjectConfig
	UI      UIConfig
	MIDI    MIDIConfig
}

// ServerConfig points at the mini-DAW state-mutation service.
type ServerConfig struct {
	URL            string
	PollIntervalMS int `mapstructure:"poll_interval_ms"`
}

// ProjectConfig seeds create-on-first-use.
type ProjectConfig struct {
	Name string
	BPM  float64
	Bars int
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Grid  string // quarter | eighth | sixteenth
	Debug bool
}

// MIDIConfig configures the local audition bridge.
type MIDIConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from file and env. Env var overrides use prefix GRIDSEQ_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.url", "http://127.0.0.1:8000")
	v.SetDefault("server.poll_interval_ms", 250)
	v.SetDefault("project.name", "My Project")
	v.SetDefault("project.bpm", 120)
	v.SetDefault("project.bars", 4)
	v.SetDefault("ui.grid", "sixteenth")
	v.SetDefault("ui.debug", false)
	v.SetDefault("midi.port", "")
	v.SetDefault("midi.enabled", false)

	v.SetConfigType("yaml")

	cfgPath := os.Getenv("GRIDSEQ_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gridseq"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GRIDSEQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
