package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/payroll-advance/internal"
	"github.com/frahmantamala/payroll-advance/internal/advance"
	advancePostgres "github.com/frahmantamala/payroll-advance/internal/advance/postgres"
	"github.com/frahmantamala/payroll-advance/internal/auth"
	authPostgres "github.com/frahmantamala/payroll-advance/internal/auth/postgres"
	"github.com/frahmantamala/payroll-advance/internal/core/events"
	"github.com/frahmantamala/payroll-advance/internal/employee"
	employeePostgres "github.com/frahmantamala/payroll-advance/internal/employee/postgres"
	"github.com/frahmantamala/payroll-advance/internal/transport/rest"
	"github.com/frahmantamala/payroll-advance/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config          *internal.Config
	DB              *sqlx.DB
	GormDB          *gorm.DB
	Router          *chi.Mux
	Logger          *slog.Logger
	AuthHandler     *auth.Handler
	RBAC            *auth.RBACAuthorization
	EmployeeHandler *employee.Handler
	AdvanceHandler  *advance.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.RBAC,
		deps.EmployeeHandler,
		deps.AdvanceHandler,
		deps.Config.Server.AllowedOrigins,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides the pgx pool sqlx already opened
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	registerEventHandlers(eventBus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg)

	employeeRepo := employeePostgres.NewEmployeeRepository(gormDB)
	employeeService := employee.NewService(employeeRepo, lg)
	employeeHandler := employee.NewHandler(employeeService)

	advanceRepo := advancePostgres.NewAdvanceRepository(gormDB)
	advanceService := advance.NewService(
		advanceRepo,
		&employeeDirectory{employees: employeeService},
		eventBus,
		lg,
		config.Payroll.PaymentNoteOrDefault(),
	)
	advanceHandler := advance.NewHandler(advanceService)

	return &Dependencies{
		Config:          config,
		Logger:          lg,
		DB:              db,
		GormDB:          gormDB,
		Router:          chi.NewRouter(),
		AuthHandler:     authHandler,
		RBAC:            rbac,
		EmployeeHandler: employeeHandler,
		AdvanceHandler:  advanceHandler,
	}, nil
}

// employeeDirectory adapts the employee service to the narrow lookup the
// advance service needs.
type employeeDirectory struct {
	employees *employee.Service
}

func (d *employeeDirectory) GetEmployeeInfo(id int64) (*advance.EmployeeInfo, error) {
	emp, err := d.employees.GetEmployee(id)
	if err != nil {
		return nil, err
	}
	return &advance.EmployeeInfo{
		ID:          emp.ID,
		Name:        emp.Name,
		Designation: emp.Designation,
		EmployeeNum: emp.EmployeeNumber,
	}, nil
}

func registerEventHandlers(bus *events.EventBus, lg *slog.Logger) {
	audit := func(ctx context.Context, event events.Event) error {
		lg.Info("audit trail",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(events.EventTypeAdvanceApproved, audit)
	bus.Subscribe(events.EventTypeAdvanceRejected, audit)
	bus.Subscribe(events.EventTypeRepaymentRecorded, audit)
	bus.Subscribe(events.EventTypeRepaymentReversed, audit)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
