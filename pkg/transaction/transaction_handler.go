package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// TransactionDTO carries amounts as integer cents and dates as "YYYY-MM-DD".
type TransactionDTO struct {
	ID             string `json:"id,omitempty"`
	Kind           string `json:"type"`
	Amount         int64  `json:"amount"`
	Date           string `json:"date"`
	EnvelopeID     int    `json:"envelopeId,omitempty"`
	FromEnvelopeID int    `json:"fromEnvelopeId,omitempty"`
	ToEnvelopeID   int    `json:"toEnvelopeId,omitempty"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	IncludeInStats *bool  `json:"includeInStats,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// Create appends an expense to the ledger. Income goes through the allocation
// endpoint; transfers are emitted by allocation, scheduler and month close.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Recording new expense")
	w.Header().Set("Content-Type", "application/json")

	var dto TransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Kind != string(KindExpense) {
		http.Error(w, "only expense transactions can be created directly", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, dto.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	includeInStats := true
	if dto.IncludeInStats != nil {
		includeInStats = *dto.IncludeInStats
	}

	expense := NewExpense(money.Cents(dto.Amount), date, dto.EnvelopeID, dto.Category, dto.Description, includeInStats)
	stored, err := h.service.Record(r.Context(), expense)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := Filter{}
	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		month, err := utils.ParseMonthKey(monthParam)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.From, filter.To = month.Bounds()
	}

	txs, err := h.service.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		dtos = append(dtos, ToDTO(t))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func ToDTO(t Transaction) TransactionDTO {
	includeInStats := t.IncludeInStats
	return TransactionDTO{
		ID:             t.ID.String(),
		Kind:           string(t.Kind),
		Amount:         int64(t.Amount),
		Date:           t.Date.Format(dateLayout),
		EnvelopeID:     t.EnvelopeID,
		FromEnvelopeID: t.FromEnvelopeID,
		ToEnvelopeID:   t.ToEnvelopeID,
		Category:       t.CategoryID,
		Description:    t.Description,
		IncludeInStats: &includeInStats,
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidTransfer) ||
		errors.Is(err, ErrUnknownEnvelope) ||
		errors.Is(err, ErrUnknownCategory)
}
