package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koperta/koperta/internal/config"
	"github.com/koperta/koperta/internal/event_bus"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/allocation"
	"github.com/koperta/koperta/pkg/analytics"
	"github.com/koperta/koperta/pkg/category"
	"github.com/koperta/koperta/pkg/closure"
	"github.com/koperta/koperta/pkg/dashboard"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/recurring"
	"github.com/koperta/koperta/pkg/transaction"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	EnvelopeRepo    envelope.Repository
	EnvelopeService *envelope.ServiceImpl
	EnvelopeHandler *envelope.Handler

	TransactionRepo    transaction.Repository
	TransactionService *transaction.ServiceImpl
	TransactionHandler *transaction.Handler

	CategoryCatalog *category.Catalog
	CategoryUsage   category.UsageRepository
	CategoryService *category.ServiceImpl
	CategoryHandler *category.Handler

	AllocationService *allocation.ServiceImpl
	AllocationHandler *allocation.Handler

	RecurringRepo    recurring.Repository
	RecurringService *recurring.ServiceImpl
	RecurringHandler *recurring.Handler
	ActionsHandler   *recurring.ActionsHandler

	ClosureRepo    closure.Repository
	ClosureService *closure.ServiceImpl
	ClosureHandler *closure.Handler

	AnalyticsService *analytics.ServiceImpl
	AnalyticsHandler *analytics.Handler

	DashboardService *dashboard.ServiceImpl
	DashboardHandler *dashboard.Handler
	DefaultsHandler  *dashboard.DefaultsHandler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}
	deps.Bus = event_bus.NewEventBus()

	deps.CategoryCatalog = category.NewCatalog()
	deps.CategoryUsage = category.NewUsageRepository(db)
	deps.CategoryService = category.NewService(deps.CategoryCatalog, deps.CategoryUsage)
	deps.CategoryService.SubscribeToLedger(deps.Bus)
	deps.CategoryHandler = category.NewHandler(deps.CategoryService)

	// the envelope store and the ledger read from each other, so the
	// envelope service gets its ledger bound after both exist
	deps.EnvelopeRepo = envelope.NewRepository(db)
	deps.EnvelopeService = envelope.NewService(deps.EnvelopeRepo, nil)
	deps.TransactionRepo = transaction.NewRepository(db)
	deps.TransactionService = transaction.NewService(deps.TransactionRepo, deps.EnvelopeService, deps.CategoryCatalog, deps.Bus)
	deps.EnvelopeService.SetLedger(deps.TransactionService)
	deps.EnvelopeHandler = envelope.NewHandler(deps.EnvelopeService)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.AllocationService = allocation.NewService(deps.TransactionService, deps.EnvelopeService)
	deps.AllocationHandler = allocation.NewHandler(deps.AllocationService)

	deps.RecurringRepo = recurring.NewRepository(db)
	deps.RecurringService = recurring.NewService(deps.RecurringRepo, deps.EnvelopeService, deps.Bus)
	deps.RecurringHandler = recurring.NewHandler(deps.RecurringService)
	deps.ActionsHandler = recurring.NewActionsHandler(deps.RecurringService, deps.Clock)

	deps.ClosureRepo = closure.NewRepository(db)
	deps.ClosureService = closure.NewService(deps.ClosureRepo, deps.TransactionService, deps.EnvelopeService)
	deps.ClosureHandler = closure.NewHandler(deps.ClosureService)

	deps.AnalyticsService = analytics.NewService(deps.TransactionService, deps.EnvelopeService, deps.Clock)
	deps.AnalyticsHandler = analytics.NewHandler(deps.AnalyticsService)

	deps.DashboardService = dashboard.NewService(
		deps.TransactionService,
		deps.EnvelopeService,
		deps.ClosureService,
		deps.RecurringService,
		deps.Clock,
	)
	deps.DashboardHandler = dashboard.NewHandler(deps.DashboardService)
	deps.DefaultsHandler = dashboard.NewDefaultsHandler(cfg.Defaults)

	return deps
}
