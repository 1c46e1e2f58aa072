package category

import (
	"context"

	"github.com/koperta/koperta/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Service ranks and resolves categories. RecordUse is deliberately
// fire-and-forget: it must never block or fail a ledger write.
type Service interface {
	Resolve(categoryID string) (string, bool)
	RecordUse(ctx context.Context, categoryID string)
	TopN(ctx context.Context, n int) ([]CategoryUsage, error)
	All() []Category
}

type ServiceImpl struct {
	catalog *Catalog
	usage   UsageRepository
}

func NewService(catalog *Catalog, usage UsageRepository) *ServiceImpl {
	return &ServiceImpl{catalog: catalog, usage: usage}
}

// SubscribeToLedger hooks usage tracking onto transaction-recorded events.
func (s *ServiceImpl) SubscribeToLedger(bus *event_bus.EventBus) func() {
	return event_bus.SubscribeTyped(bus, event_bus.TransactionRecorded,
		func(e event_bus.EventT[event_bus.TransactionRecordedData]) error {
			if e.Data.CategoryID != "" {
				s.RecordUse(e.Context(), e.Data.CategoryID)
			}
			return nil
		})
}

func (s *ServiceImpl) Resolve(categoryID string) (string, bool) {
	return s.catalog.Resolve(categoryID)
}

func (s *ServiceImpl) RecordUse(ctx context.Context, categoryID string) {
	if !s.catalog.Exists(categoryID) {
		log.Debugf("not tracking usage of unknown category %q", categoryID)
		return
	}
	if err := s.usage.Increment(ctx, categoryID); err != nil {
		// ranking data only; the caller's operation already succeeded
		log.Warnf("could not record category usage: %v", err)
	}
}

func (s *ServiceImpl) TopN(ctx context.Context, n int) ([]CategoryUsage, error) {
	return s.usage.TopN(ctx, n)
}

func (s *ServiceImpl) All() []Category {
	return s.catalog.All()
}
