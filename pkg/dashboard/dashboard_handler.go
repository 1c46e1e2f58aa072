package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/koperta/koperta/pkg/envelope"
)

type MonthlySnapshotDTO struct {
	Envelope envelope.EnvelopeDTO `json:"envelope"`
	Spent    int64                `json:"spent"`
	Balance  int64                `json:"balance"`
}

type YearlySnapshotDTO struct {
	Envelope envelope.EnvelopeDTO `json:"envelope"`
	Balance  int64                `json:"balance"`
}

type OverviewDTO struct {
	Month          string               `json:"month"`
	MainBalance    int64                `json:"mainBalance"`
	Monthly        []MonthlySnapshotDTO `json:"monthlyEnvelopes"`
	Yearly         []YearlySnapshotDTO  `json:"yearlyEnvelopes"`
	DaysRemaining  int                  `json:"daysRemaining"`
	DailyBudget    int64                `json:"dailyBudget"`
	PendingActions int                  `json:"pendingActions"`
	MonthClosed    bool                 `json:"monthClosed"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	overview, err := h.service.Overview(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dto := OverviewDTO{
		Month:          string(overview.Month),
		MainBalance:    int64(overview.MainBalance),
		Monthly:        make([]MonthlySnapshotDTO, 0, len(overview.Monthly)),
		Yearly:         make([]YearlySnapshotDTO, 0, len(overview.Yearly)),
		DaysRemaining:  overview.DaysRemaining,
		DailyBudget:    int64(overview.DailyBudget),
		PendingActions: overview.PendingActions,
		MonthClosed:    overview.MonthClosed,
	}
	for _, s := range overview.Monthly {
		dto.Monthly = append(dto.Monthly, MonthlySnapshotDTO{
			Envelope: envelope.ToDTO(s.Envelope),
			Spent:    int64(s.Spent),
			Balance:  int64(s.Balance),
		})
	}
	for _, s := range overview.Yearly {
		dto.Yearly = append(dto.Yearly, YearlySnapshotDTO{
			Envelope: envelope.ToDTO(s.Envelope),
			Balance:  int64(s.Balance),
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
