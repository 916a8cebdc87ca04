package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Attachment struct {
	ID               string    `json:"id"`
	IncidentID       string    `json:"incident_id"`
	FileName         string    `json:"file_name"`
	FileURI          string    `json:"file_uri"`
	ContentType      string    `json:"content_type"`
	UserAttacherID   string    `json:"user_attacher_id"`
	UserAttacherName string    `json:"user_attacher_name"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type AttachmentsStore interface {
	CreateAttachment(ctx context.Context, att *Attachment) error
	GetAttachment(ctx context.Context, incidentID, attachmentID string) (*Attachment, error)
	ListAttachments(ctx context.Context, incidentID string) ([]Attachment, error)
	AttachmentExists(ctx context.Context, id string) (bool, error)
}

type attachmentsStore struct {
	db *DB
}

func NewAttachmentsStore(db *DB) AttachmentsStore {
	return &attachmentsStore{db: db}
}

// CreateAttachment relies on the primary key on attachments.id to reject a
// concurrent insert that slipped past the service-level existence probe.
func (s *attachmentsStore) CreateAttachment(ctx context.Context, att *Attachment) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.db.rebind(`
		INSERT INTO attachments(id, incident_id, file_name, file_uri, content_type, user_attacher_id, user_attacher_name, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`),
		att.ID, att.IncidentID, att.FileName, att.FileURI, att.ContentType, att.UserAttacherID, att.UserAttacherName, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	att.CreatedAt = now
	att.UpdatedAt = now
	return nil
}

// GetAttachment scopes the lookup to the parent: an attachment stored under
// a different incident is reported the same way as a missing one.
func (s *attachmentsStore) GetAttachment(ctx context.Context, incidentID, attachmentID string) (*Attachment, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(`
		SELECT id, incident_id, file_name, file_uri, content_type, user_attacher_id, user_attacher_name, created_at, updated_at
		FROM attachments WHERE id=? AND incident_id=?`), attachmentID, incidentID)
	var att Attachment
	if err := row.Scan(&att.ID, &att.IncidentID, &att.FileName, &att.FileURI, &att.ContentType, &att.UserAttacherID, &att.UserAttacherName, &att.CreatedAt, &att.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &att, nil
}

func (s *attachmentsStore) ListAttachments(ctx context.Context, incidentID string) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(`
		SELECT id, incident_id, file_name, file_uri, content_type, user_attacher_id, user_attacher_name, created_at, updated_at
		FROM attachments WHERE incident_id=? ORDER BY created_at ASC, id ASC`), incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Attachment
	for rows.Next() {
		var att Attachment
		if err := rows.Scan(&att.ID, &att.IncidentID, &att.FileName, &att.FileURI, &att.ContentType, &att.UserAttacherID, &att.UserAttacherName, &att.CreatedAt, &att.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, att)
	}
	return res, rows.Err()
}

// AttachmentExists probes the id globally, not per incident.
func (s *attachmentsStore) AttachmentExists(ctx context.Context, id string) (bool, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT 1 FROM attachments WHERE id=?`), id)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
