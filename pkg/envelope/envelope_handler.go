package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/koperta/koperta/internal/money"
	log "github.com/sirupsen/logrus"
)

// EnvelopeDTO carries amounts as integer cents.
type EnvelopeDTO struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Icon          string `json:"icon,omitempty"`
	Kind          string `json:"kind"`
	PlannedAmount int64  `json:"plannedAmount"`
	Group         string `json:"group,omitempty"`
	Role          string `json:"role,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	envelopes, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]EnvelopeDTO, 0, len(envelopes))
	for _, e := range envelopes {
		dtos = append(dtos, ToDTO(e))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new envelope")
	w.Header().Set("Content-Type", "application/json")

	var dto EnvelopeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), FromDTO(dto))
	if err != nil {
		if errors.Is(err, ErrInvalidEnvelope) || errors.Is(err, ErrReservedEnvelope) {
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
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var dto EnvelopeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.ID == 0 || dto.ID != id {
		http.Error(w, "Invalid envelope id in request body", http.StatusBadRequest)
		return
	}

	ok, err := h.service.Update(r.Context(), FromDTO(dto))
	if err != nil {
		switch {
		case errors.Is(err, ErrEnvelopeNotFound):
			http.Error(w, "Envelope not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidEnvelope), errors.Is(err, ErrReservedEnvelope):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !ok {
		http.Error(w, "Envelope not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.service.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrEnvelopeNotFound):
			http.Error(w, "Envelope not found", http.StatusNotFound)
		case errors.Is(err, ErrReservedEnvelope):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !ok {
		http.Error(w, "Envelope not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var setPositionDTO struct {
		PrecedingID int `json:"precedingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&setPositionDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.service.MoveAfter(r.Context(), id, setPositionDTO.PrecedingID)
	if err != nil {
		if errors.Is(err, ErrEnvelopeNotFound) {
			http.Error(w, "Envelope not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Envelope not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, err
	}
	return id, nil
}

func ToDTO(e Envelope) EnvelopeDTO {
	return EnvelopeDTO{
		ID:            e.ID,
		Name:          e.Name,
		Icon:          e.Icon,
		Kind:          string(e.Kind),
		PlannedAmount: int64(e.PlannedAmount),
		Group:         e.Group,
		Role:          string(e.Role),
	}
}

func FromDTO(dto EnvelopeDTO) Envelope {
	return Envelope{
		ID:            dto.ID,
		Name:          dto.Name,
		Icon:          dto.Icon,
		Kind:          Kind(dto.Kind),
		PlannedAmount: money.Cents(dto.PlannedAmount),
		Group:         dto.Group,
		Role:          Role(dto.Role),
	}
}
