package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Words    WordsConfig    `yaml:"words"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig HTTP/WebSocket 服务器配置
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏节奏配置
type GameConfig struct {
	CountdownMs    int `yaml:"countdown_ms"`     // 开局倒计时（毫秒）
	RoundRestartMs int `yaml:"round_restart_ms"` // 一局结束到回到大厅的间隔（毫秒）
	LobbyPollMs    int `yaml:"lobby_poll_ms"`    // 大厅等待报名的轮询间隔（毫秒）
}

// WordsConfig 词库配置
type WordsConfig struct {
	Dir             string   `yaml:"dir"`              // 词库目录
	Languages       []string `yaml:"languages"`        // 加载的语言
	DefaultLanguage string   `yaml:"default_language"` // 默认语言
}

// SecurityConfig 安全限制配置
type SecurityConfig struct {
	ConnPerSecond int `yaml:"conn_per_second"` // 每 IP 每秒最大连接数
	MsgPerSecond  int `yaml:"msg_per_second"`  // 每连接每秒最大消息数
}

// CountdownDuration 返回开局倒计时时长
func (c *GameConfig) CountdownDuration() time.Duration {
	return time.Duration(c.CountdownMs) * time.Millisecond
}

// RoundRestartDuration 返回局间等待时长
func (c *GameConfig) RoundRestartDuration() time.Duration {
	return time.Duration(c.RoundRestartMs) * time.Millisecond
}

// LobbyPollDuration 返回大厅轮询间隔
func (c *GameConfig) LobbyPollDuration() time.Duration {
	return time.Duration(c.LobbyPollMs) * time.Millisecond
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.JWTSecret == "" {
		// 优先使用环境变量，方便容器部署
		c.Server.JWTSecret = os.Getenv("BOMBFEST_JWT_SECRET")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Game.CountdownMs == 0 {
		c.Game.CountdownMs = 10000
	}
	if c.Game.RoundRestartMs == 0 {
		c.Game.RoundRestartMs = 2000
	}
	if c.Game.LobbyPollMs == 0 {
		c.Game.LobbyPollMs = 100
	}
	if c.Words.Dir == "" {
		c.Words.Dir = "dictionaries"
	}
	if len(c.Words.Languages) == 0 {
		c.Words.Languages = []string{"sv_SE", "en_US"}
	}
	if c.Words.DefaultLanguage == "" {
		c.Words.DefaultLanguage = "sv_SE"
	}
	if c.Security.ConnPerSecond == 0 {
		c.Security.ConnPerSecond = 10
	}
	if c.Security.MsgPerSecond == 0 {
		c.Security.MsgPerSecond = 30
	}
}
