package api

import (
	"net/http"

	"vigia-incidents/api/handlers"
	"vigia-incidents/config"
	"vigia-incidents/core/attachments"
	"vigia-incidents/core/auth"
	"vigia-incidents/core/incidents"
	"vigia-incidents/core/users"
	"vigia-incidents/core/utils"
)

type ServerDeps struct {
	Cfg            *config.AppConfig
	Resolver       auth.Resolver
	IncidentsSvc   *incidents.Service
	AttachmentsSvc *attachments.Service
	UsersSvc       *users.Service
	Logger         *utils.Logger
}

type Server struct {
	cfg            *config.AppConfig
	resolver       auth.Resolver
	incidentsSvc   *incidents.Service
	attachmentsSvc *attachments.Service
	usersSvc       *users.Service
	logger         *utils.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		cfg:            deps.Cfg,
		resolver:       deps.Resolver,
		incidentsSvc:   deps.IncidentsSvc,
		attachmentsSvc: deps.AttachmentsSvc,
		usersSvc:       deps.UsersSvc,
		logger:         deps.Logger,
	}
}

type routeHandlers struct {
	incidents   *handlers.IncidentsHandler
	attachments *handlers.AttachmentsHandler
	users       *handlers.UsersHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		incidents:   handlers.NewIncidentsHandler(s.incidentsSvc, s.logger),
		attachments: handlers.NewAttachmentsHandler(s.attachmentsSvc, s.logger),
		users:       handlers.NewUsersHandler(s.usersSvc, s.logger),
	}
}

func (s *Server) Handler() http.Handler {
	return s.routes(s.newRouteHandlers())
}
