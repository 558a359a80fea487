package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	LogLevel  string
	Database  DatabaseConfig
	JWT       JWTConfig
	Loan      domain.Policy
	Kafka     KafkaConfig
	Directory DirectoryConfig
	Reminder  ReminderConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds bearer token verification settings
type JWTConfig struct {
	Secret string
	Issuer string
}

// KafkaConfig holds the event publisher settings; no brokers means log-only publishing
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// DirectoryConfig points at the external employee directory; empty URL uses the local table
type DirectoryConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// ReminderConfig controls the overdue reminder job
type ReminderConfig struct {
	Enabled bool
	Cron    string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	db, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}
	policy, err := loadLoanPolicy()
	if err != nil {
		return nil, err
	}
	reminder, err := loadReminderConfig()
	if err != nil {
		return nil, err
	}
	directory, err := loadDirectoryConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database:  db,
		JWT:       loadJWTConfig(appMode),
		Loan:      policy,
		Kafka:     loadKafkaConfig(),
		Directory: directory,
		Reminder:  reminder,
	}

	AppConfig = config
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	if driver != "mysql" && driver != "sqlite" {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", driver)
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "hr_loans"),
		SQLitePath: getEnv("SQLITE_PATH", "loans.db"),
	}, nil
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret: getEnv(prefix+"JWT_SECRET", "default_secret"),
		Issuer: getEnv("JWT_ISSUER", ""),
	}
}

// loadLoanPolicy overlays LOAN_* variables on the default lending limits
func loadLoanPolicy() (domain.Policy, error) {
	p := domain.DefaultPolicy()
	var err error

	if p.MinAmount, err = getDecimal("LOAN_MIN_AMOUNT", p.MinAmount); err != nil {
		return p, err
	}
	if p.MaxAmount, err = getDecimal("LOAN_MAX_AMOUNT", p.MaxAmount); err != nil {
		return p, err
	}
	if p.MaxInterestRate, err = getDecimal("LOAN_MAX_INTEREST_RATE", p.MaxInterestRate); err != nil {
		return p, err
	}
	if p.MaxOutstandingPerEmployee, err = getDecimal("LOAN_MAX_OUTSTANDING", p.MaxOutstandingPerEmployee); err != nil {
		return p, err
	}
	if p.MaxUtilizationPercent, err = getDecimal("LOAN_MAX_UTILIZATION", p.MaxUtilizationPercent); err != nil {
		return p, err
	}
	if p.MinInstallments, err = getInt("LOAN_MIN_INSTALLMENTS", p.MinInstallments); err != nil {
		return p, err
	}
	if p.MaxInstallments, err = getInt("LOAN_MAX_INSTALLMENTS", p.MaxInstallments); err != nil {
		return p, err
	}
	if p.RateMode, err = domain.ParseRateMode(getEnv("LOAN_WEEKLY_RATE_MODE", string(p.RateMode))); err != nil {
		return p, fmt.Errorf("invalid LOAN_WEEKLY_RATE_MODE: %w", err)
	}

	if p.MinAmount.GreaterThan(p.MaxAmount) {
		return p, fmt.Errorf("LOAN_MIN_AMOUNT %s exceeds LOAN_MAX_AMOUNT %s", p.MinAmount, p.MaxAmount)
	}
	if p.MinInstallments < 1 || p.MinInstallments > p.MaxInstallments {
		return p, fmt.Errorf("invalid installment range %d..%d", p.MinInstallments, p.MaxInstallments)
	}
	return p, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers: brokers,
		Topic:   getEnv("KAFKA_TOPIC", "loan-events"),
	}
}

func loadDirectoryConfig() (DirectoryConfig, error) {
	timeout, err := time.ParseDuration(getEnv("EMPLOYEE_DIRECTORY_TIMEOUT", "5s"))
	if err != nil {
		return DirectoryConfig{}, fmt.Errorf("invalid EMPLOYEE_DIRECTORY_TIMEOUT: %w", err)
	}
	return DirectoryConfig{
		URL:     strings.TrimRight(getEnv("EMPLOYEE_DIRECTORY_URL", ""), "/"),
		Token:   getEnv("EMPLOYEE_DIRECTORY_TOKEN", ""),
		Timeout: timeout,
	}, nil
}

func loadReminderConfig() (ReminderConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("REMINDER_ENABLED", "true"))
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("invalid REMINDER_ENABLED: %w", err)
	}
	spec := getEnv("REMINDER_CRON", "30 8 * * *")
	if _, err := cron.ParseStandard(spec); err != nil {
		return ReminderConfig{}, fmt.Errorf("invalid REMINDER_CRON %q: %w", spec, err)
	}
	return ReminderConfig{Enabled: enabled, Cron: spec}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://hr.example.com"
	}
	return origins
}
