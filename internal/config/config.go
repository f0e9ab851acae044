package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Groq      GroqConfig      `json:"groq" mapstructure:"groq"`
	Admin     AdminConfig     `json:"admin" mapstructure:"admin"`
	Session   SessionConfig   `json:"session" mapstructure:"session"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	CORS      CORSConfig      `json:"cors" mapstructure:"cors"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

type GroqConfig struct {
	APIKey         string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	Model          string `json:"model" mapstructure:"model"`
	WhisperModel   string `json:"whisper_model" mapstructure:"whisper_model"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type AdminConfig struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

type SessionConfig struct {
	Secret string `json:"secret" mapstructure:"secret"`
}

type ArtifactsConfig struct {
	Dir           string `json:"dir" mapstructure:"dir"`
	RetentionSecs int    `json:"retention_secs" mapstructure:"retention_secs"`
	SweepSecs     int    `json:"sweep_secs" mapstructure:"sweep_secs"`
}

type CORSConfig struct {
	Origins string `json:"origins" mapstructure:"origins"`
}

// Retention returns the artifact retention window.
func (a ArtifactsConfig) Retention() time.Duration {
	return time.Duration(a.RetentionSecs) * time.Second
}

// SweepInterval returns the delay between sweeper passes.
func (a ArtifactsConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepSecs) * time.Second
}

func Load() (*Config, error) {
	// Optional .env in the working directory
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("groq.model", "llama-3.3-70b-versatile")
	viper.SetDefault("groq.whisper_model", "whisper-large-v3")
	viper.SetDefault("groq.timeout_seconds", 120)
	viper.SetDefault("admin.username", "Admin")
	viper.SetDefault("admin.password", "admin123")
	viper.SetDefault("session.secret", "super_secret_key_123")
	viper.SetDefault("artifacts.dir", "./static")
	viper.SetDefault("artifacts.retention_secs", 1800)
	viper.SetDefault("artifacts.sweep_secs", 60)
	viper.SetDefault("cors.origins", "http://localhost:3000,http://localhost:5173")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env cover everything
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.Groq.APIKey = key
	}
	if model := os.Getenv("GROQ_MODEL"); model != "" {
		cfg.Groq.Model = model
	}

	if user := os.Getenv("ADMIN_USER"); user != "" {
		cfg.Admin.Username = user
	}
	if pass := os.Getenv("ADMIN_PASS"); pass != "" {
		cfg.Admin.Password = pass
	}

	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.Session.Secret = secret
	}

	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.Artifacts.Dir = dir
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORS.Origins = origins
	}
}
