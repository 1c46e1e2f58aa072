package closure

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/koperta/koperta/internal/utils"
	log "github.com/sirupsen/logrus"
)

type SummaryDTO struct {
	StatsIncome      int64 `json:"statsIncome"`
	NonStatsIncome   int64 `json:"nonStatsIncome"`
	TotalExpenses    int64 `json:"totalExpenses"`
	MonthBalance     int64 `json:"monthBalance"`
	ReturnsBalance   int64 `json:"returnsBalance"`
	SavingsRate      int   `json:"savingsRate"`
	TotalTransferred int64 `json:"totalTransferred"`
	UnusedFunds      int64 `json:"unusedFunds"`
}

type MonthClosureDTO struct {
	MonthKey string     `json:"month"`
	ClosedAt time.Time  `json:"closedAt"`
	Summary  SummaryDTO `json:"summary"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// CloseMonth handles POST /api/close-month. Re-closing a month is not an
// error: the response carries the original closure with status 200.
func (h *Handler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	month, err := utils.ParseMonthKey(request.Month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Infof("Closing month %s", month)
	c, err := h.service.CloseMonth(r.Context(), month)
	if err != nil && !errors.Is(err, ErrAlreadyClosed) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ToDTO(c)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	closures, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]MonthClosureDTO, 0, len(closures))
	for _, c := range closures {
		dtos = append(dtos, ToDTO(c))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	month, err := utils.ParseMonthKey(mux.Vars(r)["month"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.service.Get(r.Context(), month)
	if err != nil {
		if errors.Is(err, ErrClosureNotFound) {
			http.Error(w, "Month closure not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ToDTO(c)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func ToDTO(c MonthClosure) MonthClosureDTO {
	return MonthClosureDTO{
		MonthKey: string(c.MonthKey),
		ClosedAt: c.ClosedAt,
		Summary: SummaryDTO{
			StatsIncome:      int64(c.Summary.StatsIncome),
			NonStatsIncome:   int64(c.Summary.NonStatsIncome),
			TotalExpenses:    int64(c.Summary.TotalExpenses),
			MonthBalance:     int64(c.Summary.MonthBalance),
			ReturnsBalance:   int64(c.Summary.ReturnsBalance),
			SavingsRate:      c.Summary.SavingsRate,
			TotalTransferred: int64(c.Summary.TotalTransferred),
			UnusedFunds:      int64(c.Summary.UnusedFunds),
		},
	}
}
