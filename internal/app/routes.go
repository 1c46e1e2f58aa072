package app

import (
	"github.com/gorilla/mux"
	"github.com/koperta/koperta/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Envelopes
	r.HandleFunc("/api/envelopes", deps.EnvelopeHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/envelopes", deps.EnvelopeHandler.Create).Methods("POST")
	r.HandleFunc("/api/envelopes/{id}", deps.EnvelopeHandler.Update).Methods("PUT")
	r.HandleFunc("/api/envelopes/{id}", deps.EnvelopeHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/envelopes/{id}/position", deps.EnvelopeHandler.SetPosition).Methods("PUT")

	// Transactions
	r.HandleFunc("/api/transactions", deps.TransactionHandler.Create).Methods("POST")
	r.HandleFunc("/api/transactions", deps.TransactionHandler.List).Methods("GET")

	// Income allocation
	r.HandleFunc("/api/income", deps.AllocationHandler.AllocateIncome).Methods("POST")

	// Categories
	r.HandleFunc("/api/categories", deps.CategoryHandler.GetAll).Methods("GET")

	// Recurring payments
	r.HandleFunc("/api/config/recurring-payments", deps.RecurringHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/config/recurring-payments", deps.RecurringHandler.Create).Methods("POST")
	r.HandleFunc("/api/config/recurring-payments/{id}", deps.RecurringHandler.Update).Methods("PUT")
	r.HandleFunc("/api/config/recurring-payments/{id}", deps.RecurringHandler.Delete).Methods("DELETE")

	// Month close
	r.HandleFunc("/api/close-month", deps.ClosureHandler.CloseMonth).Methods("POST")
	r.HandleFunc("/api/closures", deps.ClosureHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/closures/{month}", deps.ClosureHandler.Get).Methods("GET")

	// Analytics
	r.HandleFunc("/api/analytics", deps.AnalyticsHandler.GetReport).Methods("GET")
	r.HandleFunc("/api/analytics/categories", deps.AnalyticsHandler.GetCategoryBreakdown).Methods("GET")

	// Dashboard
	r.HandleFunc("/api/dashboard", deps.DashboardHandler.GetOverview).Methods("GET")
	r.HandleFunc("/api/dashboard/actions", deps.ActionsHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/dashboard/actions/{id}/approve", deps.ActionsHandler.Approve).Methods("POST")
	r.HandleFunc("/api/dashboard/actions/{id}/dismiss", deps.ActionsHandler.Dismiss).Methods("POST")

	// Config
	r.HandleFunc("/api/config/defaults", deps.DefaultsHandler.Get).Methods("GET")
}
