package recurring

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

// RuleDTO carries amounts as integer cents.
type RuleDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Amount       int64  `json:"amount"`
	DayOfMonth   int    `json:"dayOfMonth"`
	Kind         string `json:"kind"`
	EnvelopeID   int    `json:"envelopeId,omitempty"`
	ToEnvelopeID int    `json:"toEnvelopeId,omitempty"`
	CategoryID   string `json:"category,omitempty"`
	Active       bool   `json:"active"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	rules, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]RuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, ToDTO(rule))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new recurring payment rule")
	w.Header().Set("Content-Type", "application/json")

	var dto RuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), FromDTO(dto))
	if err != nil {
		if errors.Is(err, ErrInvalidRule) || errors.Is(err, transaction.ErrUnknownEnvelope) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, err := rulePathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var dto RuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.ID == 0 || dto.ID != id {
		http.Error(w, "Invalid rule id in request body", http.StatusBadRequest)
		return
	}

	ok, err := h.service.Update(r.Context(), FromDTO(dto))
	if err != nil {
		switch {
		case errors.Is(err, ErrRuleNotFound):
			http.Error(w, "Rule not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidRule), errors.Is(err, transaction.ErrUnknownEnvelope):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !ok {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rulePathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.service.Delete(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func rulePathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, err
	}
	return id, nil
}

func ToDTO(rule Rule) RuleDTO {
	return RuleDTO{
		ID:           rule.ID,
		Name:         rule.Name,
		Amount:       int64(rule.Amount),
		DayOfMonth:   rule.DayOfMonth,
		Kind:         string(rule.Kind),
		EnvelopeID:   rule.EnvelopeID,
		ToEnvelopeID: rule.ToEnvelopeID,
		CategoryID:   rule.CategoryID,
		Active:       rule.Active,
	}
}

func FromDTO(dto RuleDTO) Rule {
	return Rule{
		ID:           dto.ID,
		Name:         dto.Name,
		Amount:       money.Cents(dto.Amount),
		DayOfMonth:   dto.DayOfMonth,
		Kind:         Kind(dto.Kind),
		EnvelopeID:   dto.EnvelopeID,
		ToEnvelopeID: dto.ToEnvelopeID,
		CategoryID:   dto.CategoryID,
		Active:       dto.Active,
	}
}
