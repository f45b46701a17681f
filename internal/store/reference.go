package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Reference is a labelled capture of one pose.
type Reference struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sample is one raw landmark frame of a reference capture.
type Sample struct {
	ID          int64           `json:"id"`
	ReferenceID string          `json:"reference_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReferenceRepository provides CRUD operations for reference captures.
type ReferenceRepository struct {
	db *sql.DB
}

// References returns the reference repository for this store.
func (s *Store) References() *ReferenceRepository {
	return &ReferenceRepository{db: s.db}
}

// Create inserts a new reference with no samples.
func (r *ReferenceRepository) Create(ref *Reference) error {
	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	ref.Samples = 0

	_, err := r.db.Exec(
		`INSERT INTO reference_sets (id, name, label, samples, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		ref.ID, ref.Name, ref.Label, ref.CreatedAt, ref.UpdatedAt,
	)
	return err
}

const referenceColumns = `id, name, label, samples, created_at, updated_at`

func scanReference(row interface{ Scan(...any) error }) (*Reference, error) {
	ref := &Reference{}
	err := row.Scan(&ref.ID, &ref.Name, &ref.Label, &ref.Samples, &ref.CreatedAt, &ref.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// GetByID retrieves a reference by its ID.
func (r *ReferenceRepository) GetByID(id string) (*Reference, error) {
	return scanReference(r.db.QueryRow(
		`SELECT `+referenceColumns+` FROM reference_sets WHERE id = ?`, id,
	))
}

// GetByName retrieves a reference by its name.
func (r *ReferenceRepository) GetByName(name string) (*Reference, error) {
	return scanReference(r.db.QueryRow(
		`SELECT `+referenceColumns+` FROM reference_sets WHERE name = ?`, name,
	))
}

// List retrieves all references, oldest first.
func (r *ReferenceRepository) List() ([]*Reference, error) {
	rows, err := r.db.Query(`SELECT ` + referenceColumns + ` FROM reference_sets ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

// Delete removes a reference and, by cascade, its samples.
func (r *ReferenceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM reference_sets WHERE id = ?`, id)
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

// AddSamples appends samples to a reference in a single transaction and
// updates its sample count.
func (r *ReferenceRepository) AddSamples(id string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(`SELECT samples FROM reference_sets WHERE id = ?`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO reference_samples (set_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(id, count+i, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE reference_sets SET samples = ?, updated_at = ? WHERE id = ?`,
		count+len(samples), time.Now(), id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Samples retrieves all samples of a reference in capture order.
func (r *ReferenceRepository) Samples(id string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, set_id, sample_index, data, created_at
		 FROM reference_samples
		 WHERE set_id = ?
		 ORDER BY sample_index`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.ReferenceID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// SampleData returns the raw JSON of every sample of a reference.
func (r *ReferenceRepository) SampleData(id string) ([]json.RawMessage, error) {
	samples, err := r.Samples(id)
	if err != nil {
		return nil, err
	}
	data := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		data[i] = s.Data
	}
	return data, nil
}
