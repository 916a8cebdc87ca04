package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vigia-incidents/core/attachments"
	"vigia-incidents/core/auth"
	"vigia-incidents/core/store"
	"vigia-incidents/core/utils"
)

type AttachmentsHandler struct {
	svc    *attachments.Service
	logger *utils.Logger
}

func NewAttachmentsHandler(svc *attachments.Service, logger *utils.Logger) *AttachmentsHandler {
	return &AttachmentsHandler{svc: svc, logger: logger}
}

type attachmentDTO struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	FileURI          string    `json:"file_uri"`
	ContentType      string    `json:"content_type"`
	UserAttacherID   string    `json:"user_attacher_id"`
	UserAttacherName string    `json:"user_attacher_name"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// The create response keeps the original wire contract's shorter keys.
type attachmentCreatedDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	URI              string    `json:"uri"`
	ContentType      string    `json:"content_type"`
	UserAttacherID   string    `json:"user_attacher_id"`
	UserAttacherName string    `json:"user_attacher_name"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func attachmentToDTO(att store.Attachment) attachmentDTO {
	return attachmentDTO{
		ID:               att.ID,
		FileName:         att.FileName,
		FileURI:          att.FileURI,
		ContentType:      att.ContentType,
		UserAttacherID:   att.UserAttacherID,
		UserAttacherName: att.UserAttacherName,
		CreatedAt:        att.CreatedAt,
		UpdatedAt:        att.UpdatedAt,
	}
}

func (h *AttachmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	incidentID := pathParams(r)["id"]
	var payload struct {
		MediaID     string `json:"media_id"`
		MediaName   string `json:"media_name"`
		MediaURI    string `json:"media_uri"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	att, err := h.svc.Create(r.Context(), payload.MediaID, incidentID, payload.MediaName, payload.MediaURI, payload.ContentType, *identity)
	if err != nil {
		switch {
		case errors.Is(err, attachments.ErrValidation):
			http.Error(w, "invalid parameters", http.StatusBadRequest)
		case errors.Is(err, attachments.ErrIncidentNotFound):
			http.Error(w, "incident not found", http.StatusNotFound)
		case errors.Is(err, attachments.ErrDuplicateID):
			http.Error(w, "media id already exists", http.StatusBadRequest)
		default:
			http.Error(w, "create attachment failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, attachmentCreatedDTO{
		ID:               att.ID,
		Name:             att.FileName,
		URI:              att.FileURI,
		ContentType:      att.ContentType,
		UserAttacherID:   att.UserAttacherID,
		UserAttacherName: att.UserAttacherName,
		CreatedAt:        att.CreatedAt,
		UpdatedAt:        att.UpdatedAt,
	})
}

func (h *AttachmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	incidentID := pathParams(r)["id"]
	items, err := h.svc.GetAll(r.Context(), incidentID)
	if err != nil {
		http.Error(w, "failed to retrieve attachments", http.StatusInternalServerError)
		return
	}
	result := make([]attachmentDTO, 0, len(items))
	for _, att := range items {
		result = append(result, attachmentToDTO(att))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AttachmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := pathParams(r)
	att, err := h.svc.Get(r.Context(), params["id"], params["attachment_id"])
	if err != nil {
		http.Error(w, "failed to retrieve attachment", http.StatusInternalServerError)
		return
	}
	if att == nil {
		http.Error(w, "attachment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, attachmentToDTO(*att))
}
