package incidents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"vigia-incidents/core/auth"
	"vigia-incidents/core/store"
	"vigia-incidents/core/utils"
)

var (
	ErrValidation = errors.New("invalid parameters")
	ErrNotFound   = errors.New("incident not found")
)

// Contact is the optional structured payload attached to an incident. It is
// stored in serialized form and only exists as a mapping at the boundary.
type Contact map[string]any

// Patch carries the three-valued update for an incident: a nil field was
// omitted and keeps its stored value, a non-nil field replaces it. A non-nil
// empty Contact clears the stored contact, which is a different thing from
// omitting it.
type Patch struct {
	Type        *string
	Description *string
	Contact     *Contact
}

// Record is an incident together with its attachment list.
type Record struct {
	store.Incident
	Attachments []store.Attachment
}

type Service struct {
	incidents   store.IncidentsStore
	attachments store.AttachmentsStore
	logger      *utils.Logger
}

func NewService(incidents store.IncidentsStore, attachments store.AttachmentsStore, logger *utils.Logger) *Service {
	return &Service{incidents: incidents, attachments: attachments, logger: logger}
}

func (s *Service) Create(ctx context.Context, id, typ, description string, contact Contact, issuer auth.Identity) (*store.Incident, error) {
	typ = strings.TrimSpace(typ)
	description = strings.TrimSpace(description)
	if id == "" || typ == "" || description == "" {
		return nil, ErrValidation
	}
	incident := &store.Incident{
		ID:             id,
		Type:           typ,
		Description:    description,
		Contact:        serializeContact(contact),
		UserIssuerID:   issuer.ID,
		UserIssuerName: issuer.Name,
	}
	if err := s.incidents.CreateIncident(ctx, incident); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Printf("incident created id=%s type=%s issuer=%s", incident.ID, incident.Type, issuer.ID)
	}
	return incident, nil
}

// Get returns (nil, nil) when no incident has that id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	incident, err := s.incidents.GetIncident(ctx, id)
	if err != nil || incident == nil {
		return nil, err
	}
	atts, err := s.attachments.ListAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Record{Incident: *incident, Attachments: atts}, nil
}

func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	items, err := s.incidents.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Record, 0, len(items))
	for _, inc := range items {
		atts, err := s.attachments.ListAttachments(ctx, inc.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, Record{Incident: inc, Attachments: atts})
	}
	return res, nil
}

// Update applies the patch; updated_at advances on every success even when
// the patch is empty. ErrNotFound is distinct from validation failures so
// the boundary can map them to different statuses.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*store.Incident, error) {
	storePatch := store.IncidentPatch{}
	if patch.Type != nil {
		typ := strings.TrimSpace(*patch.Type)
		if typ == "" {
			return nil, ErrValidation
		}
		storePatch.Type = &typ
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			return nil, ErrValidation
		}
		storePatch.Description = &desc
	}
	if patch.Contact != nil {
		serialized := ""
		if raw := serializeContact(*patch.Contact); raw != nil {
			serialized = *raw
		}
		storePatch.Contact = &serialized
	}
	updated, err := s.incidents.UpdateIncident(ctx, id, storePatch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	if s.logger != nil {
		s.logger.Printf("incident updated id=%s", id)
	}
	return updated, nil
}

func serializeContact(contact Contact) *string {
	if len(contact) == 0 {
		return nil
	}
	b, err := json.Marshal(contact)
	if err != nil {
		return nil
	}
	raw := string(b)
	return &raw
}

// DeserializeContact turns a stored contact column back into the mapping
// shape the wire format wants. Absent or unparseable values come back nil.
func DeserializeContact(raw *string) Contact {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	var contact Contact
	if err := json.Unmarshal([]byte(*raw), &contact); err != nil {
		return nil
	}
	return contact
}
