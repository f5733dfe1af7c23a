package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 技能模块业务错误 ──

var (
	ErrModuleNotFound    = errors.New("教学模块不存在")
	ErrInvalidSkillLevel = errors.New("无效的技能等级")
)

// SkillService 技能声明业务接口
type SkillService interface {
	// GetUnitSkills 某带教员在某单元全部模块上的技能，未声明的模块按 no_interest 展示
	GetUnitSkills(ctx context.Context, facilitatorID, unitID string) (*dto.UnitSkillsResponse, error)
	// UpsertSkills 批量维护技能等级，按 (facilitator, module) 幂等写入
	UpsertSkills(ctx context.Context, facilitatorID string, req *dto.UpsertSkillsRequest) (*dto.UnitSkillsResponse, error)
}

type skillService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSkillService 创建 SkillService 实例
func NewSkillService(repo *repository.Repository, logger *zap.Logger) SkillService {
	return &skillService{repo: repo, logger: logger}
}

func (s *skillService) GetUnitSkills(ctx context.Context, facilitatorID, unitID string) (*dto.UnitSkillsResponse, error) {
	modules, err := s.repo.Module.ListByUnit(ctx, unitID)
	if err != nil {
		s.logger.Error("查询单元模块失败", zap.Error(err))
		return nil, err
	}

	declared, err := s.repo.FacilitatorSkill.ListByFacilitatorAndUnit(ctx, facilitatorID, unitID)
	if err != nil {
		s.logger.Error("查询技能声明失败", zap.Error(err))
		return nil, err
	}
	byModule := make(map[string]string, len(declared))
	for i := range declared {
		byModule[declared[i].ModuleID] = declared[i].SkillLevel
	}

	resp := &dto.UnitSkillsResponse{
		FacilitatorID: facilitatorID,
		UnitID:        unitID,
		Skills:        make([]dto.SkillResponse, 0, len(modules)),
	}
	for i := range modules {
		level, ok := byModule[modules[i].ModuleID]
		if !ok {
			level = model.SkillLevelNoInterest
		}
		resp.Skills = append(resp.Skills, dto.SkillResponse{
			ModuleID:   modules[i].ModuleID,
			ModuleName: modules[i].ModuleName,
			SkillLevel: level,
		})
	}
	return resp, nil
}

func (s *skillService) UpsertSkills(ctx context.Context, facilitatorID string, req *dto.UpsertSkillsRequest) (*dto.UnitSkillsResponse, error) {
	var unitID string
	for _, item := range req.Skills {
		if !model.IsValidSkillLevel(item.SkillLevel) {
			return nil, ErrInvalidSkillLevel
		}
		mod, err := s.repo.Module.GetByID(ctx, item.ModuleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrModuleNotFound
			}
			s.logger.Error("查询模块失败", zap.Error(err))
			return nil, err
		}
		unitID = mod.UnitID

		skill := &model.FacilitatorSkill{
			FacilitatorID: facilitatorID,
			ModuleID:      item.ModuleID,
			SkillLevel:    item.SkillLevel,
		}
		skill.CreatedBy = &facilitatorID
		skill.UpdatedBy = &facilitatorID
		if err := s.repo.FacilitatorSkill.Upsert(ctx, skill); err != nil {
			s.logger.Error("写入技能声明失败", zap.Error(err))
			return nil, err
		}
	}

	return s.GetUnitSkills(ctx, facilitatorID, unitID)
}
