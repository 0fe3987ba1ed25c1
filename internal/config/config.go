package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Project   ProjectConfig   `mapstructure:"project"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Browsers  BrowsersConfig  `mapstructure:"browsers"`
	Cleaner   CleanerConfig   `mapstructure:"cleaner"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	Agent     AgentConfig     `mapstructure:"agent"`
}

type ProjectConfig struct {
	ConfigEnvVar string `mapstructure:"config_env_var"`
	MongoEnvVar  string `mapstructure:"mongo_env_var"`
}

type MongoConfig struct {
	Image        string        `mapstructure:"image"`
	Port         int           `mapstructure:"port"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type BrowsersConfig struct {
	Linux       string `mapstructure:"linux"`
	Macos       string `mapstructure:"macos"`
	WindowsEdge string `mapstructure:"windows_edge"`
	WindowsIE   string `mapstructure:"windows_ie"`
}

// CleanerConfig bounds the wait for the ClearMyTracksByProcess helper
// after the IE state wipe.
type CleanerConfig struct {
	ClearTracksTimeout      time.Duration `mapstructure:"clear_tracks_timeout"`
	ClearTracksPollInterval time.Duration `mapstructure:"clear_tracks_poll_interval"`
}

// RemoteConfig addresses the command agents on the Windows hosts; each
// runner gets its own agent URL since Edge and IE live on separate
// machines.
type RemoteConfig struct {
	EdgeAgentURL     string        `mapstructure:"edge_agent_url"`
	IEAgentURL       string        `mapstructure:"ie_agent_url"`
	Secret           string        `mapstructure:"secret"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type ReportingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Project  string `mapstructure:"project"`
}

type AgentConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Secret     string `mapstructure:"secret"`
	// WorkDirPrefix, when set, restricts incoming commands to working
	// directories under this path.
	WorkDirPrefix string `mapstructure:"workdir_prefix"`
}

// LoadConfig reads the YAML config at path and fills in defaults for
// anything the file leaves out. A missing file is fine; the defaults
// describe a standard CI checkout.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("WEBCHECK")
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Project.ConfigEnvVar == "" {
		config.Project.ConfigEnvVar = "PROJECT_CONFIG"
	}
	if config.Project.MongoEnvVar == "" {
		config.Project.MongoEnvVar = "WEBCHECK_MONGODB_RUNNING"
	}
	if config.Mongo.Image == "" {
		config.Mongo.Image = "mongo"
	}
	if config.Mongo.Port == 0 {
		config.Mongo.Port = 27017
	}
	if config.Mongo.ReadyTimeout == 0 {
		config.Mongo.ReadyTimeout = 60 * time.Second
	}
	if config.Mongo.PollInterval == 0 {
		config.Mongo.PollInterval = 500 * time.Millisecond
	}
	if config.Browsers.Linux == "" {
		config.Browsers.Linux = "Firefox,Chromium"
	}
	if config.Browsers.Macos == "" {
		config.Browsers.Macos = "Safari"
	}
	if config.Browsers.WindowsEdge == "" {
		config.Browsers.WindowsEdge = "Edge"
	}
	if config.Browsers.WindowsIE == "" {
		config.Browsers.WindowsIE = "IE"
	}
	if config.Cleaner.ClearTracksTimeout == 0 {
		config.Cleaner.ClearTracksTimeout = 30 * time.Second
	}
	if config.Cleaner.ClearTracksPollInterval == 0 {
		config.Cleaner.ClearTracksPollInterval = 500 * time.Millisecond
	}
	if config.Remote.EdgeAgentURL == "" {
		config.Remote.EdgeAgentURL = "ws://localhost:1234/ws"
	}
	if config.Remote.IEAgentURL == "" {
		config.Remote.IEAgentURL = "ws://localhost:1234/ws"
	}
	if config.Remote.HandshakeTimeout == 0 {
		config.Remote.HandshakeTimeout = 10 * time.Second
	}
	if config.Agent.ListenAddr == "" {
		config.Agent.ListenAddr = "127.0.0.1:1234"
	}
}
