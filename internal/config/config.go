package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int            `json:"port"`
	Database      DatabaseConfig `json:"database"`
	JWTSecret     string         `json:"jwt_secret" env:"JWT_SECRET"`
	TokenTTLHours int            `json:"token_ttl_hours"`

	// DebugEchoOTP makes signup/forgot-password responses echo the
	// generated code. A development affordance only, never a delivery
	// channel; defaults to off.
	DebugEchoOTP bool `json:"debug_echo_otp" env:"DEBUG_ECHO_OTP"`

	CORSOrigins []string         `json:"cors_origins"`
	Mail        MailConfig       `json:"mail"`
	LogConfig   logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" env:"DATABASE_DSN"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password" env:"DATABASE_PASSWORD"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// MailConfig selects and orders the outbound transports. Transports is
// an explicit attempt order; the chain stops at the first success.
type MailConfig struct {
	Transports []string       `json:"transports"`
	From       string         `json:"from"`
	SendGrid   SendGridConfig `json:"sendgrid"`
	SMTP       SMTPConfig     `json:"smtp"`
}

type SendGridConfig struct {
	APIKey string `json:"api_key" env:"SENDGRID_API_KEY"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password" env:"SMTP_PASSWORD"`
}

// Load reads the JSON config file, applies env-var overrides for
// secrets and the debug flag, then validates and defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.TokenTTLHours == 0 {
		cfg.TokenTTLHours = 168
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "no-reply@example.com"
	}
	if len(cfg.Mail.Transports) == 0 {
		cfg.Mail.Transports = defaultTransports(cfg.Mail)
	}
	for _, name := range cfg.Mail.Transports {
		switch name {
		case "sendgrid":
			if cfg.Mail.SendGrid.APIKey == "" {
				return nil, fmt.Errorf("mail.sendgrid.api_key is required for the sendgrid transport")
			}
		case "smtp":
			if cfg.Mail.SMTP.Host == "" || cfg.Mail.SMTP.Port == 0 {
				return nil, fmt.Errorf("mail.smtp host/port are required for the smtp transport")
			}
		case "log":
		default:
			return nil, fmt.Errorf("mail.transports: unknown transport %q", name)
		}
	}
	return &cfg, nil
}

// defaultTransports mirrors the preference order of the delivery path:
// API transport first, SMTP store-and-forward second, the disposable
// dev transport as the final fallback.
func defaultTransports(mail MailConfig) []string {
	var transports []string
	if mail.SendGrid.APIKey != "" {
		transports = append(transports, "sendgrid")
	}
	if mail.SMTP.Host != "" {
		transports = append(transports, "smtp")
	}
	return append(transports, "log")
}
