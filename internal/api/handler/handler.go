package handler

import "campus-roster/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth           *AuthHandler
	Unit           *UnitHandler
	Assignment     *AssignmentHandler
	Publication    *PublicationHandler
	Swap           *SwapHandler
	Unavailability *UnavailabilityHandler
	Skill          *SkillHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:           NewAuthHandler(svc.Auth),
		Unit:           NewUnitHandler(svc.Unit),
		Assignment:     NewAssignmentHandler(svc.Assignment),
		Publication:    NewPublicationHandler(svc.Publication),
		Swap:           NewSwapHandler(svc.Swap),
		Unavailability: NewUnavailabilityHandler(svc.Unavailability),
		Skill:          NewSkillHandler(svc.Skill),
		Export:         NewExportHandler(svc.Export),
	}
}
