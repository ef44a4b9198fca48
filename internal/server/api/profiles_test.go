package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nevik/pushcoach/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pushcoach-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestProfileHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response listProfilesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// The two built-in profiles are always present.
	if len(response.Profiles) != 2 {
		t.Fatalf("profile count = %d, want 2", len(response.Profiles))
	}

	names := map[string]bool{}
	for _, p := range response.Profiles {
		names[p.Name] = true
		if !p.Builtin {
			t.Errorf("profile %q should be builtin", p.Name)
		}
	}
	if !names["strict"] || !names["lenient"] {
		t.Errorf("missing built-in profiles, got %v", names)
	}
}

func TestProfileHandler_Create(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	body := profileRequest{
		Name: "narrow",
		Counter: &thresholdsPayload{
			DownAngle:         95,
			AngleTolerance:    10,
			UpThreshold:       150,
			ParallelThreshold: 25,
			MinDownFrames:     2,
			MinUpFrames:       2,
		},
	}
	raw, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/profiles", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if created.ID == "" {
		t.Error("created profile should have an ID")
	}
	if created.Name != "narrow" {
		t.Errorf("Name = %q, want %q", created.Name, "narrow")
	}
	if created.Counter.DownAngle != 95 {
		t.Errorf("DownAngle = %f, want 95", created.Counter.DownAngle)
	}
	// Unset sections fall back to defaults.
	if created.Posture.MinKneeAngle != 120 {
		t.Errorf("MinKneeAngle = %f, want 120 (default)", created.Posture.MinKneeAngle)
	}
	if created.MinVisibility != 0.3 {
		t.Errorf("MinVisibility = %f, want 0.3 (default)", created.MinVisibility)
	}

	// And it is retrievable from the store.
	if _, err := s.Profiles().GetByName("narrow"); err != nil {
		t.Errorf("created profile not in store: %v", err)
	}
}

func TestProfileHandler_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid JSON", "{not json", http.StatusBadRequest},
		{"missing name", `{"counter":null}`, http.StatusBadRequest},
		{
			"bad thresholds",
			`{"name":"x","counter":{"down_angle":90,"angle_tolerance":15,"up_threshold":100,"parallel_threshold":20,"min_down_frames":1,"min_up_frames":1}}`,
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/profiles", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestProfileHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	lenient, err := s.Profiles().GetByName("lenient")
	if err != nil {
		t.Fatalf("failed to get lenient profile: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/"+lenient.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Name != "lenient" {
		t.Errorf("Name = %q, want %q", got.Name, "lenient")
	}
}

func TestProfileHandler_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/no-such-id", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestProfileHandler_Update(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	p := &store.Profile{Name: "mutable"}
	applyRequest(p, &profileRequest{Name: "mutable"})
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	body := `{"name":"renamed","min_visibility":0.5}`
	req := httptest.NewRequest(http.MethodPut, "/api/profiles/"+p.ID, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, err := s.Profiles().GetByID(p.ID)
	if err != nil {
		t.Fatalf("failed to get updated profile: %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("Name = %q, want %q", updated.Name, "renamed")
	}
	if updated.MinVisibility != 0.5 {
		t.Errorf("MinVisibility = %f, want 0.5", updated.MinVisibility)
	}
}

func TestProfileHandler_UpdateBuiltinForbidden(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	strict, err := s.Profiles().GetByName("strict")
	if err != nil {
		t.Fatalf("failed to get strict profile: %v", err)
	}

	body := `{"name":"hijacked"}`
	req := httptest.NewRequest(http.MethodPut, "/api/profiles/"+strict.ID, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestProfileHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	p := &store.Profile{}
	applyRequest(p, &profileRequest{Name: "disposable"})
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/profiles/"+p.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/profiles/"+p.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestProfileHandler_DeleteBuiltinForbidden(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	strict, err := s.Profiles().GetByName("strict")
	if err != nil {
		t.Fatalf("failed to get built-in profile: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/profiles/"+strict.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Still retrievable.
	if _, err := s.Profiles().GetByName("strict"); err != nil {
		t.Errorf("built-in profile should survive delete attempt: %v", err)
	}
}

func TestProfileHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s)

	req := httptest.NewRequest(http.MethodPatch, "/api/profiles", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
