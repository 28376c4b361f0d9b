package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Email    EmailConfig    `mapstructure:"email"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EmailConfig holds SMTP configuration for approval notifications
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SenderEmail  string `mapstructure:"sender_email"`
	SenderPass   string `mapstructure:"sender_password"`
	BaseURL      string `mapstructure:"base_url"` // prefix for approve/reject links in emails
}

// ApproverConfig names the approver responsible for one level
type ApproverConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// ApprovalConfig holds the approval chain configuration
type ApprovalConfig struct {
	FrontLine  ApproverConfig `mapstructure:"front_line"`
	Finance    ApproverConfig `mapstructure:"finance"`
	Compliance ApproverConfig `mapstructure:"compliance"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/invoices.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Email defaults
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.smtp_host", "smtp.gmail.com")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.base_url", "http://localhost:8080")

	// Approval chain defaults
	viper.SetDefault("approval.front_line.name", "Manager")
	viper.SetDefault("approval.finance.name", "Finance Director")
	viper.SetDefault("approval.compliance.name", "Compliance Officer")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("email.sender_email", "SENDER_EMAIL")
	viper.BindEnv("email.sender_password", "SENDER_PASSWORD")
	viper.BindEnv("approval.front_line.email", "FRONT_LINE_APPROVER_EMAIL")
	viper.BindEnv("approval.finance.email", "FINANCE_APPROVER_EMAIL")
	viper.BindEnv("approval.compliance.email", "COMPLIANCE_APPROVER_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Email credentials only matter when sending is enabled
	if c.Email.Enabled {
		if c.Email.SenderEmail == "" {
			return fmt.Errorf("email.sender_email is required when email is enabled")
		}
		if c.Email.SenderPass == "" {
			return fmt.Errorf("email.sender_password is required when email is enabled")
		}
	}

	return nil
}
