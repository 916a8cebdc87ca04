package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vigia-incidents/core/auth"
	"vigia-incidents/core/incidents"
	"vigia-incidents/core/store"
	"vigia-incidents/core/utils"
)

type IncidentsHandler struct {
	svc    *incidents.Service
	logger *utils.Logger
}

func NewIncidentsHandler(svc *incidents.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, logger: logger}
}

type incidentDTO struct {
	ID             string              `json:"id"`
	Type           string              `json:"type"`
	Description    string              `json:"description"`
	Contact        incidents.Contact   `json:"contact"`
	UserIssuerID   string              `json:"user_issuer_id"`
	UserIssuerName string              `json:"user_issuer_name"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	Attachments    []attachmentSummary `json:"attachments"`
}

type attachmentSummary struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	FileURI     string `json:"file_uri"`
	ContentType string `json:"content_type"`
}

// incidentToDTO always carries a non-nil attachment slice so the wire
// format emits "attachments": [] rather than dropping or nulling the key.
func incidentToDTO(inc store.Incident) incidentDTO {
	return incidentDTO{
		Attachments:    []attachmentSummary{},
		ID:             inc.ID,
		Type:           inc.Type,
		Description:    inc.Description,
		Contact:        incidents.DeserializeContact(inc.Contact),
		UserIssuerID:   inc.UserIssuerID,
		UserIssuerName: inc.UserIssuerName,
		CreatedAt:      inc.CreatedAt,
		UpdatedAt:      inc.UpdatedAt,
	}
}

func incidentWithAttachments(rec incidents.Record) incidentDTO {
	dto := incidentToDTO(rec.Incident)
	dto.Attachments = make([]attachmentSummary, 0, len(rec.Attachments))
	for _, att := range rec.Attachments {
		dto.Attachments = append(dto.Attachments, attachmentSummary{
			ID:          att.ID,
			FileName:    att.FileName,
			FileURI:     att.FileURI,
			ContentType: att.ContentType,
		})
	}
	return dto
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var payload struct {
		Type        string            `json:"type"`
		Description string            `json:"description"`
		Contact     incidents.Contact `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Type) == "" || strings.TrimSpace(payload.Description) == "" {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	id := utils.BuildIncidentID()
	created, err := h.svc.Create(r.Context(), id, payload.Type, payload.Description, payload.Contact, *identity)
	if err != nil {
		if errors.Is(err, incidents.ErrValidation) {
			http.Error(w, "invalid parameters", http.StatusBadRequest)
			return
		}
		if errors.Is(err, store.ErrDuplicate) {
			http.Error(w, "incident id already exists", http.StatusBadRequest)
			return
		}
		http.Error(w, "create incident failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, incidentToDTO(*created))
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.GetAll(r.Context())
	if err != nil {
		http.Error(w, "get all incidents failed", http.StatusInternalServerError)
		return
	}
	result := make([]incidentDTO, 0, len(records))
	for _, rec := range records {
		result = append(result, incidentWithAttachments(rec))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParams(r)["id"]
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "get incident failed", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "incident not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, incidentWithAttachments(*rec))
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id := pathParams(r)["id"]
	var payload struct {
		Type        *string            `json:"type"`
		Description *string            `json:"description"`
		Contact     *incidents.Contact `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	if payload.Type != nil && strings.TrimSpace(*payload.Type) == "" {
		http.Error(w, "invalid type parameter", http.StatusBadRequest)
		return
	}
	if payload.Description != nil && strings.TrimSpace(*payload.Description) == "" {
		http.Error(w, "invalid description parameter", http.StatusBadRequest)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, incidents.Patch{
		Type:        payload.Type,
		Description: payload.Description,
		Contact:     payload.Contact,
	})
	if err != nil {
		if errors.Is(err, incidents.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, incidents.ErrValidation) {
			http.Error(w, "invalid parameters", http.StatusBadRequest)
			return
		}
		http.Error(w, "update incident failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, incidentToDTO(*updated))
}
