package category

import (
	"encoding/json"
	"net/http"
	"sort"
)

type CategoryDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DefaultEnvelope string `json:"defaultEnvelope,omitempty"`
	UseCount        int64  `json:"useCount"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// GetAll lists the catalog, most-used categories first.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	categories := h.service.All()
	usages, err := h.service.TopN(r.Context(), len(categories))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	counts := make(map[string]int64, len(usages))
	for _, u := range usages {
		counts[u.CategoryID] = u.UseCount
	}

	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategoryDTO{
			ID:              c.ID,
			Name:            c.Name,
			DefaultEnvelope: c.DefaultEnvelope,
			UseCount:        counts[c.ID],
		})
	}
	// stable, so equal use counts keep catalog order
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].UseCount > dtos[j].UseCount })

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
