package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/transaction"
)

// StubRepository is an in-memory Repository for tests. It mirrors the
// database guard: one materialization per (rule, month), transaction stored
// together with the materialization or not at all.
type StubRepository struct {
	rules            map[int]Rule
	materializations map[string]Materialization
	Transactions     []transaction.Transaction
	nextID           int
}

func NewStubRepository() *StubRepository {
	return &StubRepository{
		rules:            map[int]Rule{},
		materializations: map[string]Materialization{},
		nextID:           1,
	}
}

func (s *StubRepository) Cleanup() {
	s.rules = map[int]Rule{}
	s.materializations = map[string]Materialization{}
	s.Transactions = nil
	s.nextID = 1
}

func materializationKey(ruleID int, month utils.MonthKey) string {
	return fmt.Sprintf("%d/%s", ruleID, month)
}

func (s *StubRepository) Store(_ context.Context, rule Rule) (int, error) {
	rule.ID = s.nextID
	s.nextID++
	s.rules[rule.ID] = rule
	return rule.ID, nil
}

func (s *StubRepository) GetAll(_ context.Context) ([]Rule, error) {
	rules := make([]Rule, 0, len(s.rules))
	for id := 1; id < s.nextID; id++ {
		if rule, ok := s.rules[id]; ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (s *StubRepository) GetByID(_ context.Context, id int) (Rule, error) {
	rule, ok := s.rules[id]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return rule, nil
}

func (s *StubRepository) Update(_ context.Context, rule Rule) (bool, error) {
	if _, ok := s.rules[rule.ID]; !ok {
		return false, nil
	}
	s.rules[rule.ID] = rule
	return true, nil
}

func (s *StubRepository) Delete(_ context.Context, id int) (bool, error) {
	if _, ok := s.rules[id]; !ok {
		return false, nil
	}
	delete(s.rules, id)
	return true, nil
}

func (s *StubRepository) MaterializedRules(_ context.Context, month utils.MonthKey) (map[int]bool, error) {
	materialized := map[int]bool{}
	for _, m := range s.materializations {
		if m.MonthKey == month {
			materialized[m.RuleID] = true
		}
	}
	return materialized, nil
}

func (s *StubRepository) FindMaterialization(_ context.Context, ruleID int, month utils.MonthKey) (Materialization, error) {
	m, ok := s.materializations[materializationKey(ruleID, month)]
	if !ok {
		return Materialization{}, ErrRuleNotFound
	}
	return m, nil
}

func (s *StubRepository) StoreMaterialization(_ context.Context, ruleID int, month utils.MonthKey, tx transaction.Transaction) (Materialization, error) {
	key := materializationKey(ruleID, month)
	if _, ok := s.materializations[key]; ok {
		return Materialization{}, ErrAlreadyMaterialized
	}
	m := Materialization{
		RuleID:        ruleID,
		MonthKey:      month,
		TransactionID: tx.ID,
		CreatedAt:     time.Now(),
	}
	s.materializations[key] = m
	s.Transactions = append(s.Transactions, tx)
	return m, nil
}
