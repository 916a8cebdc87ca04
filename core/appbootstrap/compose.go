package appbootstrap

import (
	"vigia-incidents/api"
	"vigia-incidents/config"
	"vigia-incidents/core/attachments"
	"vigia-incidents/core/auth"
	"vigia-incidents/core/incidents"
	"vigia-incidents/core/store"
	"vigia-incidents/core/users"
	"vigia-incidents/core/utils"
)

// Compose wires stores, services and the identity resolver into the deps
// the HTTP server needs. Everything is injected; nothing here is global.
func Compose(cfg *config.AppConfig, db *store.DB, logger *utils.Logger) api.ServerDeps {
	incidentsStore := store.NewIncidentsStore(db)
	attachmentsStore := store.NewAttachmentsStore(db)

	incidentsSvc := incidents.NewService(incidentsStore, attachmentsStore, logger)
	attachmentsSvc := attachments.NewService(attachmentsStore, incidentsStore, logger)

	provider := users.NewHTTPProvider(cfg.Users.ProviderURL, cfg.Users.ProviderKey, cfg.ProviderTimeout())
	usersSvc := users.NewService(provider, logger)

	return api.ServerDeps{
		Cfg:            cfg,
		Resolver:       auth.NewTokenResolver(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer),
		IncidentsSvc:   incidentsSvc,
		AttachmentsSvc: attachmentsSvc,
		UsersSvc:       usersSvc,
		Logger:         logger,
	}
}
