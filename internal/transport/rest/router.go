package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/payroll-advance/internal/advance"
	"github.com/frahmantamala/payroll-advance/internal/auth"
	"github.com/frahmantamala/payroll-advance/internal/employee"
	"github.com/frahmantamala/payroll-advance/internal/transport/middleware"
	"github.com/frahmantamala/payroll-advance/internal/transport/swagger"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	rbac *auth.RBACAuthorization,
	employeeHandler *employee.Handler,
	advanceHandler *advance.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Everything below requires authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Route("/employees", func(er chi.Router) {
				er.Get("/", employeeHandler.ListEmployees)
				er.Get("/{employeeID}", employeeHandler.GetEmployee)

				// Advances scoped to one employee
				er.Post("/{employeeID}/advances", advanceHandler.CreateAdvance)
				er.Get("/{employeeID}/advances", advanceHandler.GetEmployeeAdvances)

				er.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Patch("/{employeeID}/advances/monthly-deductions", advanceHandler.UpdateMonthlyDeductions)
				})

				// Repayment history
				er.Get("/{employeeID}/repayments", advanceHandler.GetMonthlyHistory)
				er.Get("/{employeeID}/repayments/{historyID}/receipt", advanceHandler.GetReceipt)

				er.Group(func(hr chi.Router) {
					hr.Use(rbac.RequireDeleteHistory())
					hr.Delete("/{employeeID}/repayments/{historyID}", advanceHandler.DeletePaymentHistory)
				})
			})

			pr.Route("/advances", func(ar chi.Router) {
				ar.Get("/", advanceHandler.GetAllAdvances)
				ar.Get("/{id}", advanceHandler.GetAdvance)
				ar.Patch("/{id}", advanceHandler.UpdateAdvance)
				ar.Delete("/{id}", advanceHandler.DeleteAdvance)

				ar.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireApproveAdvance())
					mr.Patch("/{id}/approve", advanceHandler.ApproveAdvance)
				})

				ar.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireRejectAdvance())
					mr.Patch("/{id}/reject", advanceHandler.RejectAdvance)
				})

				ar.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireRecordRepayment())
					mr.Post("/{id}/repayments", advanceHandler.RecordRepayment)
				})
			})
		})
	})
}
