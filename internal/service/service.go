package service

import (
	"go.uber.org/zap"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/repository"
	"campus-roster/backend/pkg/jwt"
	"campus-roster/backend/pkg/mailer"
	"campus-roster/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth           AuthService
	Unit           UnitService
	Conflict       ConflictService
	Assignment     AssignmentService
	Publication    PublicationService
	Swap           SwapService
	Unavailability UnavailabilityService
	Skill          SkillService
	Export         ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache *redis.Client,
	mail *mailer.Mailer,
	logger *zap.Logger,
) *Service {
	notifier := NewNotifier(repo, mail, logger)
	conflict := NewConflictService(cfg, repo, logger)

	return &Service{
		Auth:           NewAuthService(cfg, repo, jwtMgr, cache, logger),
		Unit:           NewUnitService(repo, conflict, logger),
		Conflict:       conflict,
		Assignment:     NewAssignmentService(repo, conflict, notifier, logger),
		Publication:    NewPublicationService(cfg, repo, notifier, logger),
		Swap:           NewSwapService(cfg, repo, conflict, notifier, logger),
		Unavailability: NewUnavailabilityService(cfg, repo, logger),
		Skill:          NewSkillService(repo, logger),
		Export:         NewExportService(repo, logger),
	}
}
