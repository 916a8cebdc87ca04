package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrDuplicate is returned when an insert trips a primary-key or unique
// constraint. It is the correctness backstop for the check-then-act window
// between an existence probe and the insert that follows it.
var ErrDuplicate = errors.New("duplicate key")

type Incident struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Contact        *string   `json:"contact,omitempty"` // serialized JSON, nil when absent
	UserIssuerID   string    `json:"user_issuer_id"`
	UserIssuerName string    `json:"user_issuer_name"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IncidentPatch carries the three-valued update: a nil field is left
// untouched, a non-nil field replaces the stored value. Contact set to a
// pointer at an empty string clears the column.
type IncidentPatch struct {
	Type        *string
	Description *string
	Contact     *string
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) error
	GetIncident(ctx context.Context, id string) (*Incident, error)
	ListIncidents(ctx context.Context) ([]Incident, error)
	UpdateIncident(ctx context.Context, id string, patch IncidentPatch) (*Incident, error)
	IncidentExists(ctx context.Context, id string) (bool, error)
}

type incidentsStore struct {
	db *DB
}

func NewIncidentsStore(db *DB) IncidentsStore {
	return &incidentsStore{db: db}
}

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.db.rebind(`
		INSERT INTO incidents(id, type, description, contact, user_issuer_id, user_issuer_name, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`),
		incident.ID, incident.Type, incident.Description, nullableText(incident.Contact), incident.UserIssuerID, incident.UserIssuerName, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	incident.CreatedAt = now
	incident.UpdatedAt = now
	return nil
}

func (s *incidentsStore) GetIncident(ctx context.Context, id string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(`
		SELECT id, type, description, contact, user_issuer_id, user_issuer_name, created_at, updated_at
		FROM incidents WHERE id=?`), id)
	return scanIncident(row)
}

func (s *incidentsStore) ListIncidents(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(`
		SELECT id, type, description, contact, user_issuer_id, user_issuer_name, created_at, updated_at
		FROM incidents ORDER BY created_at DESC, id DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		var inc Incident
		var contact sql.NullString
		if err := rows.Scan(&inc.ID, &inc.Type, &inc.Description, &contact, &inc.UserIssuerID, &inc.UserIssuerName, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
			return nil, err
		}
		if contact.Valid {
			inc.Contact = &contact.String
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

// UpdateIncident applies the patch and refreshes updated_at even when every
// patch field is nil, as long as the incident exists. A (nil, nil) return
// means there is no incident with that id.
func (s *incidentsStore) UpdateIncident(ctx context.Context, id string, patch IncidentPatch) (*Incident, error) {
	current, err := s.GetIncident(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.Type != nil {
		current.Type = *patch.Type
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Contact != nil {
		if strings.TrimSpace(*patch.Contact) == "" {
			current.Contact = nil
		} else {
			current.Contact = patch.Contact
		}
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.rebind(`
		UPDATE incidents SET type=?, description=?, contact=?, updated_at=? WHERE id=?`),
		current.Type, current.Description, nullableText(current.Contact), now, id)
	if err != nil {
		return nil, err
	}
	current.UpdatedAt = now
	return current, nil
}

func (s *incidentsStore) IncidentExists(ctx context.Context, id string) (bool, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT 1 FROM incidents WHERE id=?`), id)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanIncident(row *sql.Row) (*Incident, error) {
	var inc Incident
	var contact sql.NullString
	if err := row.Scan(&inc.ID, &inc.Type, &inc.Description, &contact, &inc.UserIssuerID, &inc.UserIssuerName, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if contact.Valid {
		inc.Contact = &contact.String
	}
	return &inc, nil
}

func nullableText(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// sqlite reports "UNIQUE constraint failed", postgres "duplicate key
	// value violates unique constraint" (SQLSTATE 23505).
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
