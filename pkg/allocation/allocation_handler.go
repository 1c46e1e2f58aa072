package allocation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

// IncomeType discriminates the income variants. Handled exhaustively; an
// unknown value is a validation error, not a fallthrough.
type IncomeType string

const (
	IncomeSalary IncomeType = "salary"
	IncomeBonus  IncomeType = "bonus"
	IncomeOther  IncomeType = "other"
)

type SplitDTO struct {
	EnvelopeID int   `json:"envelopeId"`
	Amount     int64 `json:"amount,omitempty"`
	Percent    int   `json:"percent,omitempty"`
}

type IncomeDTO struct {
	Type           string     `json:"type"`
	Amount         int64      `json:"amount"`
	Date           string     `json:"date"`
	Description    string     `json:"description,omitempty"`
	IncludeInStats *bool      `json:"includeInStats,omitempty"`
	Splits         []SplitDTO `json:"splits,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) AllocateIncome(w http.ResponseWriter, r *http.Request) {
	log.Debug("Allocating income")
	w.Header().Set("Content-Type", "application/json")

	var dto IncomeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", dto.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	includeInStats := true
	if dto.IncludeInStats != nil {
		includeInStats = *dto.IncludeInStats
	}
	amount := money.Cents(dto.Amount)

	var txs []transaction.Transaction
	switch IncomeType(dto.Type) {
	case IncomeSalary:
		splits := make([]Split, 0, len(dto.Splits))
		for _, s := range dto.Splits {
			splits = append(splits, Split{EnvelopeID: s.EnvelopeID, Amount: money.Cents(s.Amount)})
		}
		txs, err = h.service.AllocateSalary(r.Context(), amount, date, includeInStats, dto.Description, splits)
	case IncomeBonus:
		splits := make([]PercentSplit, 0, len(dto.Splits))
		for _, s := range dto.Splits {
			splits = append(splits, PercentSplit{EnvelopeID: s.EnvelopeID, Percent: s.Percent})
		}
		txs, err = h.service.AllocateBonus(r.Context(), amount, date, includeInStats, dto.Description, splits)
	case IncomeOther:
		txs, err = h.service.AllocateOther(r.Context(), amount, date, includeInStats, dto.Description)
	default:
		http.Error(w, "unknown income type", http.StatusBadRequest)
		return
	}
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]transaction.TransactionDTO, 0, len(txs))
	for _, t := range txs {
		dtos = append(dtos, transaction.ToDTO(t))
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrAllocationOverflow) ||
		errors.Is(err, ErrAllocationNotExhaustive) ||
		errors.Is(err, ErrInvalidSplit) ||
		errors.Is(err, transaction.ErrNonPositiveAmount) ||
		errors.Is(err, transaction.ErrUnknownEnvelope)
}
