package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	WeChat  WeChatConfig  `yaml:"wechat"`
	Encoder EncoderConfig `yaml:"encoder"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	AuthSecret  string `yaml:"auth_secret"`
}

// WeChatConfig drives the recognition platform client.
type WeChatConfig struct {
	AppID        string  `yaml:"app_id"`
	AppSecret    string  `yaml:"app_secret"`
	Lang         string  `yaml:"lang"`
	MaxAttempts  int     `yaml:"max_attempts"`
	DelaySeconds float64 `yaml:"delay_seconds"` // pause before every poll attempt
}

type EncoderConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		WeChat: WeChatConfig{
			Lang:         "zh_CN",
			MaxAttempts:  5,
			DelaySeconds: 1,
		},
		Encoder: EncoderConfig{
			FFmpegPath: "ffmpeg",
		},
	}
}

// Load reads the yaml file when it exists, then applies env overrides.
// A missing file is fine: env-only deployments (docker) carry everything.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Server.DatabaseURL = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Server.AuthSecret = v
	}
	if v := os.Getenv("WECHAT_APPID"); v != "" {
		c.WeChat.AppID = v
	}
	if v := os.Getenv("WECHAT_APPSECRET"); v != "" {
		c.WeChat.AppSecret = v
	}
	if v := os.Getenv("WECHAT_LANG"); v != "" {
		c.WeChat.Lang = v
	}
	if v := os.Getenv("WECHAT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WeChat.MaxAttempts = n
		}
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		c.Encoder.FFmpegPath = v
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.WeChat.Validate(); err != nil {
		return fmt.Errorf("wechat config: %w", err)
	}
	if err := c.Encoder.Validate(); err != nil {
		return fmt.Errorf("encoder config: %w", err)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if s.DatabaseURL == "" {
		return fmt.Errorf("database_url (or DATABASE_URL) is not set")
	}
	if s.AuthSecret == "" {
		return fmt.Errorf("auth_secret (or AUTH_SECRET) is not set")
	}
	return nil
}

func (w *WeChatConfig) Validate() error {
	if w.AppID == "" {
		return fmt.Errorf("app_id (or WECHAT_APPID) is not set")
	}
	if w.AppSecret == "" {
		return fmt.Errorf("app_secret (or WECHAT_APPSECRET) is not set")
	}
	if w.Lang != "zh_CN" && w.Lang != "en_US" {
		return fmt.Errorf("lang must be zh_CN or en_US, got %q", w.Lang)
	}
	if w.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", w.MaxAttempts)
	}
	if w.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds cannot be negative, got %f", w.DelaySeconds)
	}
	return nil
}

func (e *EncoderConfig) Validate() error {
	if e.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}
	return nil
}

// GetDelayDuration returns the inter-poll pause as a time.Duration.
func (w *WeChatConfig) GetDelayDuration() time.Duration {
	return time.Duration(w.DelaySeconds * float64(time.Second))
}
