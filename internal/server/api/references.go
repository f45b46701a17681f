// Package api provides the JSON handlers of the local status server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/store"
)

// ReferenceHandler serves the captured reference poses.
//
//	GET    /api/references
//	GET    /api/references/{id}
//	DELETE /api/references/{id}
//	GET    /api/references/{id}/samples
//	GET    /api/references/{id}/report
type ReferenceHandler struct {
	refs    *store.ReferenceRepository
	trainer *gesture.Trainer
}

// NewReferenceHandler creates a handler. Without a trainer the report
// endpoint answers 404.
func NewReferenceHandler(s *store.Store, trainer *gesture.Trainer) *ReferenceHandler {
	return &ReferenceHandler{refs: s.References(), trainer: trainer}
}

func (h *ReferenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/references"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, parts[0])
		case http.MethodDelete:
			h.delete(w, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && r.Method != http.MethodGet:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case len(parts) == 2 && parts[1] == "samples":
		h.samples(w, parts[0])
	case len(parts) == 2 && parts[1] == "report" && h.trainer != nil:
		h.report(w, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

type referenceResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Samples   int    `json:"samples"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listReferencesResponse struct {
	References []referenceResponse `json:"references"`
}

type sampleResponse struct {
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type reportResponse struct {
	ID              string         `json:"id"`
	Label           string         `json:"label"`
	Samples         int            `json:"samples"`
	Observed        int            `json:"observed"`
	Classified      map[string]int `json:"classified"`
	Agreement       float64        `json:"agreement"`
	MeanDistance    float64        `json:"mean_distance"`
	Nearest         string         `json:"nearest,omitempty"`
	NearestDistance float64        `json:"nearest_distance,omitempty"`
}

func toResponse(ref *store.Reference) referenceResponse {
	return referenceResponse{
		ID:        ref.ID,
		Name:      ref.Name,
		Label:     ref.Label,
		Samples:   ref.Samples,
		CreatedAt: ref.CreatedAt.Format(time.RFC3339),
		UpdatedAt: ref.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *ReferenceHandler) list(w http.ResponseWriter) {
	refs, err := h.refs.List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list references")
		return
	}
	response := listReferencesResponse{References: make([]referenceResponse, 0, len(refs))}
	for _, ref := range refs {
		response.References = append(response.References, toResponse(ref))
	}
	WriteJSON(w, http.StatusOK, response)
}

func (h *ReferenceHandler) get(w http.ResponseWriter, id string) {
	ref, err := h.refs.GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get reference")
		return
	}
	WriteJSON(w, http.StatusOK, toResponse(ref))
}

func (h *ReferenceHandler) delete(w http.ResponseWriter, id string) {
	if err := h.refs.Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete reference")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReferenceHandler) samples(w http.ResponseWriter, id string) {
	if _, err := h.refs.GetByID(id); err != nil {
		h.storeError(w, err, "Failed to get reference")
		return
	}
	samples, err := h.refs.Samples(id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}
	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		})
	}
	WriteJSON(w, http.StatusOK, response)
}

func (h *ReferenceHandler) report(w http.ResponseWriter, id string) {
	if _, err := h.refs.GetByID(id); err != nil {
		h.storeError(w, err, "Failed to get reference")
		return
	}
	reports, err := app.InspectReferences(h.refs, h.trainer)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to inspect references")
		return
	}
	for _, r := range reports {
		if r.ID != id {
			continue
		}
		classified := make(map[string]int, len(r.Classified))
		for label, n := range r.Classified {
			classified[string(label)] = n
		}
		resp := reportResponse{
			ID:           r.ID,
			Label:        string(r.Label),
			Samples:      r.Samples,
			Observed:     r.Observed,
			Classified:   classified,
			Agreement:    r.Agreement,
			MeanDistance: r.MeanDistance,
		}
		if r.Nearest != gesture.None {
			resp.Nearest = string(r.Nearest)
			resp.NearestDistance = r.NearestDistance
		}
		WriteJSON(w, http.StatusOK, resp)
		return
	}
	WriteError(w, http.StatusConflict, "Reference has no samples")
}

func (h *ReferenceHandler) storeError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Reference not found")
		return
	}
	WriteError(w, http.StatusInternalServerError, message)
}
