package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/payroll-advance/internal/core/events"
	"github.com/frahmantamala/payroll-advance/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers: the balance audit loop and the event bus worker.`,
}

// Balance audit worker command
var auditWorkerCmd = &cobra.Command{
	Use:   "audit",
	Short: "Start the balance audit worker",
	Long:  `Periodically recompute each employee's cached advance balance from their advances and repair drift.`,
	Run: func(cmd *cobra.Command, args []string) {
		startAuditWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var auditInterval time.Duration

func startAuditWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	lg.Info("balance audit worker started", "interval", auditInterval)

	ticker := time.NewTicker(auditInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runBalanceAudit(db, lg)
		case sig := <-sigChan:
			lg.Info("received signal, shutting down audit worker", "signal", sig)
			return
		}
	}
}

// runBalanceAudit finds employees whose cached advance_payment column drifted
// from the sum of their advances' remaining balances and repairs them.
func runBalanceAudit(db *gorm.DB, lg *slog.Logger) {
	query := `
		UPDATE employees e
		SET advance_payment = COALESCE(sub.balance, 0)
		FROM (
			SELECT employee_id, SUM(amount - repaid_amount) AS balance
			FROM advance_payments
			GROUP BY employee_id
		) sub
		WHERE sub.employee_id = e.id
		  AND e.advance_payment IS DISTINCT FROM COALESCE(sub.balance, 0)`

	result := db.Exec(query)
	if result.Error != nil {
		lg.Error("balance audit failed", "error", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		lg.Info("balance audit repaired drifted balances", "employees", result.RowsAffected)
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)

	for _, eventType := range []string{
		events.EventTypeAdvanceApproved,
		events.EventTypeAdvanceRejected,
		events.EventTypeRepaymentRecorded,
		events.EventTypeRepaymentReversed,
	} {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			lg.Info("received event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	lg.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down event bus", "signal", sig)
}

func init() {
	auditWorkerCmd.Flags().DurationVar(&auditInterval, "interval", 15*time.Minute, "How often to run the balance audit")

	workerCmd.AddCommand(auditWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
