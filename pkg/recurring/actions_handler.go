package recurring

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koperta/koperta/internal/utils"
	log "github.com/sirupsen/logrus"
)

// ActionDTO is a due rule presented as a pending dashboard action.
type ActionDTO struct {
	RuleID     int    `json:"ruleId"`
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	DayOfMonth int    `json:"dayOfMonth"`
	Kind       string `json:"kind"`
}

type ActionsHandler struct {
	service Service
	clock   utils.Clock
}

func NewActionsHandler(service Service, clock utils.Clock) *ActionsHandler {
	return &ActionsHandler{service: service, clock: clock}
}

func (h *ActionsHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	due, err := h.service.DueRules(r.Context(), h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	actions := make([]ActionDTO, 0, len(due))
	for _, rule := range due {
		actions = append(actions, ActionDTO{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Amount:     int64(rule.Amount),
			DayOfMonth: rule.DayOfMonth,
			Kind:       string(rule.Kind),
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(actions); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *ActionsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, err := rulePathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.service.Materialize(r.Context(), id, h.clock.Now())
	if err != nil && !errors.Is(err, ErrAlreadyMaterialized) {
		switch {
		case errors.Is(err, ErrRuleNotFound):
			http.Error(w, "Rule not found", http.StatusNotFound)
		case errors.Is(err, ErrRuleNotDue):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	response := struct {
		RuleID        int    `json:"ruleId"`
		Month         string `json:"month"`
		TransactionID string `json:"transactionId"`
	}{
		RuleID:        m.RuleID,
		Month:         string(m.MonthKey),
		TransactionID: m.TransactionID.String(),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Dismiss defers a due action without recording anything. The rule stays due
// and shows up again on the next check.
func (h *ActionsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := rulePathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Dismissed pending action for rule %d", id)
	w.WriteHeader(http.StatusNoContent)
}
