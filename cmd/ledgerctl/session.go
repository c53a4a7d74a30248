package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"finledger/internal/cache"
	"finledger/internal/config"
	"finledger/internal/database"
	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/services"
	"finledger/internal/uuid"
	"finledger/internal/validator"
)

// session is an open database plus the services bound to it and, once
// logged in, the acting user.
type session struct {
	db           *database.Manager
	user         *models.User
	users        services.UserServicer
	categories   services.CategoryServicer
	transactions services.TransactionServicer
	statistics   services.StatisticsServicer
}

// open connects to the configured database and migrates it. When login is
// set, the configured credentials are verified and the reserved categories
// of the user are ensured.
func (a *cli) open(ctx context.Context, login bool) (*session, error) {
	dbConfig, err := database.NewConfig(a.appConfig())
	if err != nil {
		return nil, err
	}
	if dbConfig.Driver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dbConfig.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, err
	}
	if err := manager.RunMigrations(); err != nil {
		_ = manager.Close()
		return nil, err
	}

	db := manager.DB()
	reports := cache.NopCache{}
	categories := services.NewCategoryService(db, reports)
	s := &session{
		db:           manager,
		users:        services.NewUserService(db),
		categories:   categories,
		transactions: services.NewTransactionService(db, reports),
		statistics:   services.NewStatisticsService(db, categories, reports, a.v.GetString("report.locale")),
	}

	if !login {
		return s, nil
	}

	username, password := a.v.GetString("auth.username"), a.v.GetString("auth.password")
	if username == "" || password == "" {
		s.Close()
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "set --username and --password, LEDGER_AUTH_USERNAME/LEDGER_AUTH_PASSWORD, or auth.* in the config file")
	}
	s.user, err = s.users.Authenticate(ctx, username, password)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.categories.EnsureDefaults(ctx, s.user.ID); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *session) Close() {
	_ = s.db.Close()
}

// appConfig maps the CLI settings onto the shared application config.
func (a *cli) appConfig() *config.Config {
	path := a.v.GetString("database.path")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".local", "share", "ledgerctl", "ledger.db")
		} else {
			path = "ledger.db"
		}
	}

	a.v.SetDefault("database.host", "localhost")
	a.v.SetDefault("database.sslmode", "disable")
	a.v.SetDefault("database.name", "finledger")
	a.v.SetDefault("database.migrations", "migrations")

	return &config.Config{
		DBDriver:      a.v.GetString("database.driver"),
		DBHost:        a.v.GetString("database.host"),
		DBPort:        a.v.GetString("database.port"),
		DBUser:        a.v.GetString("database.user"),
		DBPassword:    a.v.GetString("database.password"),
		DBName:        a.v.GetString("database.name"),
		DBSSLMode:     a.v.GetString("database.sslmode"),
		DBPath:        path,
		MigrationsDir: a.v.GetString("database.migrations"),
	}
}

// editableCategory loads a category and refuses the reserved ones.
func (s *session) editableCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.GetCategoryByID(ctx, s.user.ID, id)
	if err != nil {
		return nil, err
	}
	if category.IsReserved() {
		return nil, apperrors.ErrReservedCategory
	}
	return category, nil
}

func parseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid amount %q", s))
	}
	return amount, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(validator.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid date %q, use YYYY-MM-DD", s))
	}
	return t, nil
}

// optionalDateFlag parses a date flag when it was set.
func optionalDateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
