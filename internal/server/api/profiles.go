// Package api provides HTTP API handlers for the pushcoach service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nevik/pushcoach/internal/counter"
	"github.com/nevik/pushcoach/internal/geometry"
	"github.com/nevik/pushcoach/internal/store"
)

// ProfileHandler handles HTTP requests for strictness profile resources.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// the appropriate methods.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/profiles or /api/profiles/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type thresholdsPayload struct {
	DownAngle         float64 `json:"down_angle"`
	AngleTolerance    float64 `json:"angle_tolerance"`
	UpThreshold       float64 `json:"up_threshold"`
	ParallelThreshold float64 `json:"parallel_threshold"`
	MinDownFrames     int     `json:"min_down_frames"`
	MinUpFrames       int     `json:"min_up_frames"`
}

type posturePayload struct {
	MinKneeAngle     float64 `json:"min_knee_angle"`
	MaxTorsoTilt     float64 `json:"max_torso_tilt"`
	MinFaceDownRatio float64 `json:"min_face_down_ratio"`
}

type profileRequest struct {
	Name          string             `json:"name"`
	Counter       *thresholdsPayload `json:"counter"`
	Posture       *posturePayload    `json:"posture"`
	MinVisibility float64            `json:"min_visibility"`
}

type profileResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Counter       thresholdsPayload `json:"counter"`
	Posture       posturePayload    `json:"posture"`
	MinVisibility float64           `json:"min_visibility"`
	Builtin       bool              `json:"builtin"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Profile to a profileResponse.
func toResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:   p.ID,
		Name: p.Name,
		Counter: thresholdsPayload{
			DownAngle:         p.Counter.DownAngle,
			AngleTolerance:    p.Counter.AngleTolerance,
			UpThreshold:       p.Counter.UpThreshold,
			ParallelThreshold: p.Counter.ParallelThreshold,
			MinDownFrames:     p.Counter.MinDownFrames,
			MinUpFrames:       p.Counter.MinUpFrames,
		},
		Posture: posturePayload{
			MinKneeAngle:     p.Posture.MinKneeAngle,
			MaxTorsoTilt:     p.Posture.MaxTorsoTilt,
			MinFaceDownRatio: p.Posture.MinFaceDownRatio,
		},
		MinVisibility: p.MinVisibility,
		Builtin:       p.Builtin,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// applyRequest builds the profile fields from a request, filling unset
// sections with defaults.
func applyRequest(p *store.Profile, req *profileRequest) {
	p.Name = req.Name

	p.Counter = counter.LenientThresholds()
	if req.Counter != nil {
		p.Counter = counter.Thresholds{
			DownAngle:         req.Counter.DownAngle,
			AngleTolerance:    req.Counter.AngleTolerance,
			UpThreshold:       req.Counter.UpThreshold,
			ParallelThreshold: req.Counter.ParallelThreshold,
			MinDownFrames:     req.Counter.MinDownFrames,
			MinUpFrames:       req.Counter.MinUpFrames,
		}
	}

	p.Posture = geometry.DefaultPostureThresholds()
	if req.Posture != nil {
		p.Posture = geometry.PostureThresholds{
			MinKneeAngle:     req.Posture.MinKneeAngle,
			MaxTorsoTilt:     req.Posture.MaxTorsoTilt,
			MinFaceDownRatio: req.Posture.MinFaceDownRatio,
		}
	}

	p.MinVisibility = req.MinVisibility
	if p.MinVisibility == 0 {
		p.MinVisibility = 0.3
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/profiles and returns all profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}

	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id} and returns a single profile.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// create handles POST /api/profiles and creates a new profile.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	profile := &store.Profile{ID: uuid.New().String()}
	applyRequest(profile, &req)

	if err := profile.Counter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(profile))
}

// update handles PUT /api/profiles/{id} and updates an existing profile.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	if profile.Builtin {
		writeError(w, http.StatusForbidden, "Built-in profiles cannot be modified")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	applyRequest(profile, &req)

	if err := profile.Counter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Update(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// delete handles DELETE /api/profiles/{id} and removes a profile.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		if errors.Is(err, store.ErrBuiltin) {
			writeError(w, http.StatusForbidden, "Built-in profiles cannot be deleted")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
