package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"advance_payment_histories", "advance_payments", "user_permissions", "permissions", "users", "employees"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, "hr@mail.com", "Huda HR", string(hash))
		seedUser(db, "admin@mail.com", "Aziz Admin", string(hash))

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"advances.view", "Can view advance payments"},
			{"advances.approve", "Can approve advance requests"},
			{"advances.reject", "Can reject advance requests"},
			{"advances.record_repayment", "Can record advance repayments"},
			{"advances.delete_history", "Can delete repayment history records"},
			{"employees.view", "Can view the employee directory"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		grantPermissions(db, "admin@mail.com", []string{
			"admin", "advances.view", "advances.approve", "advances.reject",
			"advances.record_repayment", "advances.delete_history", "employees.view",
		})
		grantPermissions(db, "hr@mail.com", []string{
			"advances.view", "advances.record_repayment", "employees.view",
		})

		employees := []struct {
			Name        string
			Number      string
			Designation string
			Salary      int
		}{
			{"Amira Hassan", "EMP-001", "Accountant", 9000},
			{"Bilal Khan", "EMP-002", "Engineer", 12000},
			{"Carlos Diaz", "EMP-003", "Driver", 6000},
		}

		for _, e := range employees {
			var exists int
			row := db.Raw("SELECT 1 FROM employees WHERE employee_number = ?", e.Number).Row()
			if err := row.Scan(&exists); err != nil {
				if err := db.Exec(
					"INSERT INTO employees (name, employee_number, designation, basic_salary, advance_payment, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, 0, true, now(), now())",
					e.Name, e.Number, e.Designation, e.Salary).Error; err != nil {
					log.Fatalf("failed to insert employee %s: %v", e.Number, err)
				}
				fmt.Printf("Seeded employee: %s\n", e.Number)
			}
		}

		// one approved advance for the first employee so repayments can be
		// exercised right away
		var empID int64
		if err := db.Raw("SELECT id FROM employees WHERE employee_number = ?", "EMP-001").Row().Scan(&empID); err != nil {
			log.Fatalf("failed to lookup seeded employee: %v", err)
		}

		var advExists int
		if err := db.Raw("SELECT 1 FROM advance_payments WHERE employee_id = ?", empID).Row().Scan(&advExists); err != nil {
			if err := db.Exec(
				`INSERT INTO advance_payments
				 (employee_id, amount, monthly_deduction, repaid_amount, status, reason, payment_date, estimated_months, created_at, updated_at)
				 VALUES (?, 3000, 250, 0, 'approved', 'seeded advance', now(), 12, now(), now())`,
				empID).Error; err != nil {
				log.Fatalf("failed to insert seeded advance: %v", err)
			}
			if err := db.Exec("UPDATE employees SET advance_payment = 3000 WHERE id = ?", empID).Error; err != nil {
				log.Fatalf("failed to sync seeded balance: %v", err)
			}
			fmt.Println("Seeded approved advance for EMP-001")
		}

		fmt.Println("Seeding complete")
	},
}

func seedUser(db *gorm.DB, email, name, passwordHash string) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Printf("user %s already exists; will ensure permissions\n", email)
		return
	}

	if err := db.Exec(
		"INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())",
		email, name, passwordHash).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}

func grantPermissions(db *gorm.DB, email string, permNames []string) {
	var userID int64
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&userID); err != nil {
		log.Fatalf("failed to lookup user id for %s: %v", email, err)
	}

	for _, permName := range permNames {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
			log.Fatalf("permission not found %s: %v", permName, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, pid).Row().Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", userID, pid).Error; err != nil {
			log.Fatalf("failed to grant permission %s to %s: %v", permName, email, err)
		}
	}

	fmt.Printf("Granted permissions to %s: %v\n", email, permNames)
}
