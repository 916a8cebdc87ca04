package attachments

import (
	"context"
	"errors"
	"strings"

	"vigia-incidents/core/auth"
	"vigia-incidents/core/store"
	"vigia-incidents/core/utils"
)

var (
	ErrValidation       = errors.New("invalid parameters")
	ErrIncidentNotFound = errors.New("incident not found")
	ErrDuplicateID      = errors.New("media id already exists")
)

type Service struct {
	attachments store.AttachmentsStore
	incidents   store.IncidentsStore
	logger      *utils.Logger
}

func NewService(attachments store.AttachmentsStore, incidents store.IncidentsStore, logger *utils.Logger) *Service {
	return &Service{attachments: attachments, incidents: incidents, logger: logger}
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.attachments.AttachmentExists(ctx, id)
}

// Create enforces its preconditions in a fixed order: field validation,
// parent existence, id uniqueness, insert. The parent check is not wrapped
// in a transaction with the insert; the primary key on the attachment id is
// the backstop when two creations race past the uniqueness probe, and that
// loser surfaces as ErrDuplicateID rather than a generic failure.
func (s *Service) Create(ctx context.Context, id, incidentID, fileName, fileURI, contentType string, attacher auth.Identity) (*store.Attachment, error) {
	id = strings.TrimSpace(id)
	fileName = strings.TrimSpace(fileName)
	fileURI = strings.TrimSpace(fileURI)
	contentType = strings.TrimSpace(contentType)
	if id == "" || incidentID == "" || fileName == "" || fileURI == "" || contentType == "" {
		return nil, ErrValidation
	}
	parentExists, err := s.incidents.IncidentExists(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !parentExists {
		return nil, ErrIncidentNotFound
	}
	taken, err := s.attachments.AttachmentExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateID
	}
	att := &store.Attachment{
		ID:               id,
		IncidentID:       incidentID,
		FileName:         fileName,
		FileURI:          fileURI,
		ContentType:      contentType,
		UserAttacherID:   attacher.ID,
		UserAttacherName: attacher.Name,
	}
	if err := s.attachments.CreateAttachment(ctx, att); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateID
		}
		return nil, err
	}
	if s.logger != nil {
		s.logger.Printf("attachment created id=%s incident=%s attacher=%s", att.ID, att.IncidentID, attacher.ID)
	}
	return att, nil
}

// GetAll does not distinguish a missing incident from one with no
// attachments; callers that care probe the incident themselves.
func (s *Service) GetAll(ctx context.Context, incidentID string) ([]store.Attachment, error) {
	return s.attachments.ListAttachments(ctx, incidentID)
}

// Get returns (nil, nil) when the attachment is missing or belongs to a
// different incident.
func (s *Service) Get(ctx context.Context, incidentID, attachmentID string) (*store.Attachment, error) {
	return s.attachments.GetAttachment(ctx, incidentID, attachmentID)
}
