package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
)

type TrendPointDTO struct {
	Month    string `json:"month,omitempty"`
	Income   int64  `json:"income"`
	Expenses int64  `json:"expenses"`
	Savings  int64  `json:"savings"`
}

type DeltaDTO struct {
	Current       int64 `json:"current"`
	Previous      int64 `json:"previous"`
	Change        int64 `json:"change"`
	ChangePercent int   `json:"changePercent"`
}

type ReportDTO struct {
	Period        string          `json:"period"`
	Trend         []TrendPointDTO `json:"trend"`
	MovingAverage TrendPointDTO   `json:"movingAverage"`
	Comparison    struct {
		Income   DeltaDTO `json:"income"`
		Expenses DeltaDTO `json:"expenses"`
		Savings  DeltaDTO `json:"savings"`
	} `json:"comparison"`
	ForecastNextMonth int64 `json:"forecastNextMonth"`
}

type BreakdownRowDTO struct {
	EnvelopeID   int    `json:"envelopeId,omitempty"`
	EnvelopeName string `json:"envelopeName,omitempty"`
	Category     string `json:"category,omitempty"`
	Amount       int64  `json:"amount"`
	Percentage   int    `json:"percentage"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.Report(r.Context(), period)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toReportDTO(report)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.service.CategoryBreakdown(r.Context(), period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]BreakdownRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, BreakdownRowDTO{
			EnvelopeID:   row.EnvelopeID,
			EnvelopeName: row.EnvelopeName,
			Category:     row.Category,
			Amount:       int64(row.Amount),
			Percentage:   row.Percentage,
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func toTrendDTO(p TrendPoint) TrendPointDTO {
	return TrendPointDTO{
		Month:    string(p.Month),
		Income:   int64(p.Income),
		Expenses: int64(p.Expenses),
		Savings:  int64(p.Savings),
	}
}

func toDeltaDTO(d Delta) DeltaDTO {
	return DeltaDTO{
		Current:       int64(d.Current),
		Previous:      int64(d.Previous),
		Change:        int64(d.Change),
		ChangePercent: d.ChangePercent,
	}
}

func toReportDTO(report Report) ReportDTO {
	dto := ReportDTO{
		Period:            string(report.Period),
		Trend:             make([]TrendPointDTO, 0, len(report.Trend)),
		MovingAverage:     toTrendDTO(report.MovingAverage),
		ForecastNextMonth: int64(report.ForecastNextMonth),
	}
	dto.MovingAverage.Month = ""
	for _, p := range report.Trend {
		dto.Trend = append(dto.Trend, toTrendDTO(p))
	}
	dto.Comparison.Income = toDeltaDTO(report.Comparison.Income)
	dto.Comparison.Expenses = toDeltaDTO(report.Comparison.Expenses)
	dto.Comparison.Savings = toDeltaDTO(report.Comparison.Savings)
	return dto
}
