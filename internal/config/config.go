package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AssistantConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	DryRun  bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	PublicBaseURL string          `yaml:"public_base_url"`
	Assistant     AssistantConfig `yaml:"assistant"`
	Telegram      TelegramConfig  `yaml:"telegram"`
}

// LoadConfig reads config/config.yaml and then lets the environment
// (optionally loaded from .env) override the secrets.
func LoadConfig() *Config {
	// .env is optional; absence is not an error
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	var cfg Config
	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ASSISTANT_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = n
		}
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Assistant.BaseURL == "" {
		cfg.Assistant.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gpt-4o-mini"
	}
	return &cfg
}
