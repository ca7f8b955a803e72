package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const handsSep = "|"

// Mapping is one row of a mapping table.
type Mapping struct {
	Hands []string
	Token string
}

// MappingTable is a stored, user-editable mapping table.
type MappingTable struct {
	ID          string
	Name        string
	Description string
	Locale      string
	Mappings    []Mapping
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableRepository provides CRUD operations for mapping tables.
type TableRepository struct {
	db *sql.DB
}

// Tables returns the mapping table repository.
func (s *Store) Tables() *TableRepository {
	return &TableRepository{db: s.db}
}

// Create inserts t and its mappings in one transaction.
func (r *TableRepository) Create(t *MappingTable) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO mapping_tables (id, name, description, locale, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, t.Locale, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := insertMappings(tx, t.ID, t.Mappings); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMappings(tx *sql.Tx, tableID string, mappings []Mapping) error {
	stmt, err := tx.Prepare(`INSERT INTO mappings (table_id, position, hands, token) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range mappings {
		if _, err := stmt.Exec(tableID, i, strings.Join(m.Hands, handsSep), m.Token); err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
	}
	return nil
}

// GetByID retrieves a table and its mappings.
func (r *TableRepository) GetByID(id string) (*MappingTable, error) {
	return r.get(`WHERE id = ?`, id)
}

// GetByName retrieves a table and its mappings by name.
func (r *TableRepository) GetByName(name string) (*MappingTable, error) {
	return r.get(`WHERE name = ?`, name)
}

func (r *TableRepository) get(where string, arg any) (*MappingTable, error) {
	t := &MappingTable{}
	err := r.db.QueryRow(
		`SELECT id, name, description, locale, created_at, updated_at FROM mapping_tables `+where,
		arg,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Locale, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.Mappings, err = r.mappings(t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TableRepository) mappings(tableID string) ([]Mapping, error) {
	rows, err := r.db.Query(
		`SELECT hands, token FROM mappings WHERE table_id = ? ORDER BY position`,
		tableID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var hands string
		var m Mapping
		if err := rows.Scan(&hands, &m.Token); err != nil {
			return nil, err
		}
		m.Hands = strings.Split(hands, handsSep)
		out = append(out, m)
	}
	return out, rows.Err()
}

// List retrieves every table with its mappings, newest first.
func (r *TableRepository) List() ([]*MappingTable, error) {
	rows, err := r.db.Query(
		`SELECT id, name, description, locale, created_at, updated_at
		 FROM mapping_tables ORDER BY created_at DESC, name`,
	)
	if err != nil {
		return nil, err
	}

	var tables []*MappingTable
	for rows.Next() {
		t := &MappingTable{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Locale, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		tables = append(tables, t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// The connection is free again; load the mappings.
	for _, t := range tables {
		if t.Mappings, err = r.mappings(t.ID); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// Update replaces the table's metadata and all of its mappings.
func (r *TableRepository) Update(t *MappingTable) error {
	t.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE mapping_tables SET name = ?, description = ?, locale = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Description, t.Locale, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}
	if err := affectedOne(res); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM mappings WHERE table_id = ?`, t.ID); err != nil {
		return err
	}
	if err := insertMappings(tx, t.ID, t.Mappings); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a table and its mappings.
func (r *TableRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM mapping_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
