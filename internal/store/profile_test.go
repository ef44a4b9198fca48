package store

import (
	"errors"
	"testing"

	"github.com/nevik/pushcoach/internal/counter"
	"github.com/nevik/pushcoach/internal/geometry"
)

func customProfile(name string) *Profile {
	return &Profile{
		Name: name,
		Counter: counter.Thresholds{
			DownAngle:         95,
			AngleTolerance:    10,
			UpThreshold:       150,
			ParallelThreshold: 25,
			MinDownFrames:     2,
			MinUpFrames:       2,
		},
		Posture:       geometry.DefaultPostureThresholds(),
		MinVisibility: 0.4,
	}
}

func TestProfileRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := customProfile("elbows-in")
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if p.ID == "" {
		t.Error("ID should be assigned on create")
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if p.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}

	retrieved, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("failed to get profile by ID: %v", err)
	}

	if retrieved.Name != p.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, p.Name)
	}
	if retrieved.Counter != p.Counter {
		t.Errorf("Counter mismatch: got %+v, want %+v", retrieved.Counter, p.Counter)
	}
	if retrieved.Posture != p.Posture {
		t.Errorf("Posture mismatch: got %+v, want %+v", retrieved.Posture, p.Posture)
	}
	if retrieved.MinVisibility != p.MinVisibility {
		t.Errorf("MinVisibility mismatch: got %f, want %f", retrieved.MinVisibility, p.MinVisibility)
	}
	if retrieved.Builtin {
		t.Error("custom profile should not be builtin")
	}
}

func TestProfileRepository_CreateDuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(customProfile("dup")); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := repo.Create(customProfile("dup")); err == nil {
		t.Error("creating a second profile with the same name should fail")
	}
}

func TestProfileRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := customProfile("wide-grip")
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	retrieved, err := repo.GetByName("wide-grip")
	if err != nil {
		t.Fatalf("failed to get profile by name: %v", err)
	}
	if retrieved.ID != p.ID {
		t.Errorf("ID mismatch: got %q, want %q", retrieved.ID, p.ID)
	}
}

func TestProfileRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if _, err := repo.GetByID("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByName("no-such-name"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(customProfile("a")); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := repo.Create(customProfile("b")); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	profiles, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}

	// 2 built-ins plus the 2 just created.
	if len(profiles) != 4 {
		t.Fatalf("profile count = %d, want 4", len(profiles))
	}
}

func TestProfileRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := customProfile("tweakable")
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	p.Name = "tweaked"
	p.Counter.DownAngle = 85
	p.MinVisibility = 0.5
	if err := repo.Update(p); err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}

	retrieved, err := repo.GetByID(p.ID)
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if retrieved.Name != "tweaked" {
		t.Errorf("Name = %q, want %q", retrieved.Name, "tweaked")
	}
	if retrieved.Counter.DownAngle != 85 {
		t.Errorf("DownAngle = %f, want 85", retrieved.Counter.DownAngle)
	}
	if retrieved.MinVisibility != 0.5 {
		t.Errorf("MinVisibility = %f, want 0.5", retrieved.MinVisibility)
	}
}

func TestProfileRepository_UpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := customProfile("ghost")
	p.ID = "no-such-id"
	if err := repo.Update(p); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := customProfile("ephemeral")
	if err := repo.Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}

	if _, err := repo.GetByID(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_DeleteBuiltinRefused(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	strict, err := repo.GetByName("strict")
	if err != nil {
		t.Fatalf("failed to get built-in profile: %v", err)
	}

	if err := repo.Delete(strict.ID); !errors.Is(err, ErrBuiltin) {
		t.Errorf("Delete builtin error = %v, want ErrBuiltin", err)
	}

	// Still retrievable.
	if _, err := repo.GetByName("strict"); err != nil {
		t.Errorf("built-in profile should survive delete attempt: %v", err)
	}
}
