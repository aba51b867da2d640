// internal/app.go
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"bank-ledger/internal/config"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/repository/postgres"
	"bank-ledger/internal/service"
	"bank-ledger/internal/util"
	"bank-ledger/pkg/db"
)

// Application holds all the initialized components of the ledger.
type Application struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	LogOutput io.Writer // Destination of log lines; stdout when nil
	DB        *sqlx.DB

	// Repositories
	AccountRepository     repository.AccountRepository
	TransactionRepository repository.TransactionRepository

	// Services
	LedgerService service.LedgerService
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel, app.LogOutput)
	app.Logger = util.GetLogger()
	app.Logger.Debug("Application configuration loaded successfully.")

	// 3. Connect to Database and make sure the tables exist
	database, err := db.NewPostgresDB(ctx, app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if err := db.EnsureSchema(ctx, app.DB); err != nil {
		_ = app.DB.Close()
		app.DB = nil
		return err
	}
	app.Logger.Debug("Database connection established.", "host", cfg.DB.Host, "db", cfg.DB.DBName)

	// 4. Initialize Repositories
	app.AccountRepository = postgres.NewAccountRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()

	// 5. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.AccountRepository,
		app.TransactionRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		service.Policy{
			MinOpeningBalance: cfg.Ledger.MinOpeningBalance,
			MaxRetries:        cfg.Ledger.MaxRetries,
			RetryBackoff:      cfg.Ledger.RetryBackoff,
		},
		app.Logger,
	)
	app.Logger.Debug("Services initialized.")

	return nil
}

// Shutdown releases application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Debug("Database connection closed.")
	}
	return nil
}
