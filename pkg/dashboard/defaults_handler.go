package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/koperta/koperta/internal/config"
	"github.com/koperta/koperta/internal/money"
	log "github.com/sirupsen/logrus"
)

// DefaultsDTO carries configured income-form pre-fills. Informational only,
// nothing here is enforced on allocation.
type DefaultsDTO struct {
	Salary    int64            `json:"salary,omitempty"`
	Transfers map[string]int64 `json:"transfers,omitempty"`
}

type DefaultsHandler struct {
	defaults config.Defaults
}

func NewDefaultsHandler(defaults config.Defaults) *DefaultsHandler {
	return &DefaultsHandler{defaults: defaults}
}

func (h *DefaultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dto := DefaultsDTO{Transfers: map[string]int64{}}
	if h.defaults.Salary != "" {
		amount, err := money.ParseDecimal(h.defaults.Salary)
		if err != nil {
			log.Warnf("ignoring malformed default salary %q: %v", h.defaults.Salary, err)
		} else {
			dto.Salary = int64(amount)
		}
	}
	for name, value := range h.defaults.Transfers {
		amount, err := money.ParseDecimal(value)
		if err != nil {
			log.Warnf("ignoring malformed default transfer for %q: %v", name, err)
			continue
		}
		dto.Transfers[name] = int64(amount)
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
