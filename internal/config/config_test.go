package config

import (
	"path/filepath"
	"testing"
	"time"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "hr_loans", cfg.Database.DBName)
	assert.Equal(t, domain.DefaultPolicy().MaxOutstandingPerEmployee, cfg.Loan.MaxOutstandingPerEmployee)
	assert.Equal(t, domain.RateModePerPeriod, cfg.Loan.RateMode)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "loan-events", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, "30 8 * * *", cfg.Reminder.Cron)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
	assert.Same(t, cfg, AppConfig)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_DB_NAME", "loans_prod")
	t.Setenv("PROD_JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LOAN_MAX_AMOUNT", "250000")
	t.Setenv("LOAN_MAX_INSTALLMENTS", "60")
	t.Setenv("LOAN_WEEKLY_RATE_MODE", string(domain.RateModeMonthly))
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("EMPLOYEE_DIRECTORY_URL", "https://hr.example.com/api/")
	t.Setenv("REMINDER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "loans_prod", cfg.Database.DBName)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "250000", cfg.Loan.MaxAmount.String())
	assert.Equal(t, 60, cfg.Loan.MaxInstallments)
	assert.Equal(t, domain.RateModeMonthly, cfg.Loan.RateMode)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://hr.example.com/api", cfg.Directory.URL)
	assert.False(t, cfg.Reminder.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"app mode", "APP_MODE", "staging"},
		{"driver", "DB_DRIVER", "postgres"},
		{"amount", "LOAN_MAX_AMOUNT", "lots"},
		{"amount range", "LOAN_MIN_AMOUNT", "500000"},
		{"installments", "LOAN_MIN_INSTALLMENTS", "0"},
		{"rate mode", "LOAN_WEEKLY_RATE_MODE", "DAILY"},
		{"cron", "REMINDER_CRON", "every morning"},
		{"timeout", "EMPLOYEE_DIRECTORY_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(&Config{AppMode: "prod", LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger(&Config{AppMode: "dev", LogLevel: "loud"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestConnectDatabaseAndSeed(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cfg := &Config{
		AppMode: "prod",
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "loans.db"),
		},
	}

	db, err := ConnectDatabase(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase() })
	require.NoError(t, HealthCheck())

	seeder := NewSeeder(db, log)
	require.NoError(t, seeder.Run())
	require.NoError(t, seeder.Run(), "seeding twice is a no-op")

	var employees []models.Employee
	require.NoError(t, db.Order("id").Find(&employees).Error)
	require.Len(t, employees, 5)
	assert.False(t, employees[4].IsActive)
}
