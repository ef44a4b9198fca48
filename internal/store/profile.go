package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nevik/pushcoach/internal/counter"
	"github.com/nevik/pushcoach/internal/geometry"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrBuiltin is returned for mutations that are not allowed on built-in
// profiles.
var ErrBuiltin = errors.New("built-in profile")

// Profile is a named strictness profile: the full set of thresholds the
// analyzer is constructed with, plus the keypoint visibility gate applied
// by the ingestion layer.
type Profile struct {
	ID            string
	Name          string
	Counter       counter.Thresholds
	Posture       geometry.PostureThresholds
	MinVisibility float64
	Builtin       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, down_angle, angle_tolerance, up_threshold,
	parallel_threshold, min_down_frames, min_up_frames, min_knee_angle,
	max_torso_tilt, min_face_down_ratio, min_visibility, builtin,
	created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	p := &Profile{}
	var builtin int

	err := row.Scan(
		&p.ID, &p.Name,
		&p.Counter.DownAngle, &p.Counter.AngleTolerance, &p.Counter.UpThreshold,
		&p.Counter.ParallelThreshold, &p.Counter.MinDownFrames, &p.Counter.MinUpFrames,
		&p.Posture.MinKneeAngle, &p.Posture.MaxTorsoTilt, &p.Posture.MinFaceDownRatio,
		&p.MinVisibility, &builtin,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Builtin = builtin != 0
	return p, nil
}

// Create inserts a new profile. An empty ID is filled with a fresh UUID.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	builtin := 0
	if p.Builtin {
		builtin = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name,
		p.Counter.DownAngle, p.Counter.AngleTolerance, p.Counter.UpThreshold,
		p.Counter.ParallelThreshold, p.Counter.MinDownFrames, p.Counter.MinUpFrames,
		p.Posture.MinKneeAngle, p.Posture.MaxTorsoTilt, p.Posture.MinFaceDownRatio,
		p.MinVisibility, builtin,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	row := r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// GetByName retrieves a profile by its unique name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	row := r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	return scanProfile(row)
}

// List retrieves all profiles ordered by creation time.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, down_angle = ?, angle_tolerance = ?,
			up_threshold = ?, parallel_threshold = ?, min_down_frames = ?,
			min_up_frames = ?, min_knee_angle = ?, max_torso_tilt = ?,
			min_face_down_ratio = ?, min_visibility = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name,
		p.Counter.DownAngle, p.Counter.AngleTolerance, p.Counter.UpThreshold,
		p.Counter.ParallelThreshold, p.Counter.MinDownFrames, p.Counter.MinUpFrames,
		p.Posture.MinKneeAngle, p.Posture.MaxTorsoTilt, p.Posture.MinFaceDownRatio,
		p.MinVisibility, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile by its ID. Deleting a built-in profile returns
// ErrBuiltin; a missing profile returns ErrNotFound.
func (r *ProfileRepository) Delete(id string) error {
	var builtin int
	err := r.db.QueryRow(`SELECT builtin FROM profiles WHERE id = ?`, id).Scan(&builtin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if builtin != 0 {
		return ErrBuiltin
	}

	_, err = r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	return err
}

// seedBuiltins inserts the built-in strict and lenient profiles if they are
// not already present.
func (r *ProfileRepository) seedBuiltins() error {
	builtins := []*Profile{
		{
			Name:          "strict",
			Counter:       counter.DefaultThresholds(),
			Posture:       geometry.StrictPostureThresholds(),
			MinVisibility: 0.3,
			Builtin:       true,
		},
		{
			Name:          "lenient",
			Counter:       counter.LenientThresholds(),
			Posture:       geometry.DefaultPostureThresholds(),
			MinVisibility: 0.3,
			Builtin:       true,
		},
	}

	for _, p := range builtins {
		_, err := r.GetByName(p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := r.Create(p); err != nil {
			return err
		}
	}

	return nil
}
