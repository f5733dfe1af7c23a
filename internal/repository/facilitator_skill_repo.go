package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
)

// FacilitatorSkillRepository 技能声明数据访问接口
type FacilitatorSkillRepository interface {
	Upsert(ctx context.Context, skill *model.FacilitatorSkill) error
	GetByFacilitatorAndModule(ctx context.Context, facilitatorID, moduleID string) (*model.FacilitatorSkill, error)
	ListByFacilitatorAndUnit(ctx context.Context, facilitatorID, unitID string) ([]model.FacilitatorSkill, error)
	ListByModule(ctx context.Context, moduleID string) ([]model.FacilitatorSkill, error)
	DeleteByFacilitatorAndUnit(ctx context.Context, facilitatorID, unitID string) error
}

// facilitatorSkillRepo FacilitatorSkillRepository 的 GORM 实现
type facilitatorSkillRepo struct {
	db *gorm.DB
}

// NewFacilitatorSkillRepo 创建 FacilitatorSkillRepository 实例
func NewFacilitatorSkillRepo(db *gorm.DB) FacilitatorSkillRepository {
	return &facilitatorSkillRepo{db: db}
}

// Upsert 按 (facilitator, module) 唯一键写入：已存在则更新等级
func (r *facilitatorSkillRepo) Upsert(ctx context.Context, skill *model.FacilitatorSkill) error {
	var existing model.FacilitatorSkill
	err := r.db.WithContext(ctx).
		Where("facilitator_id = ? AND module_id = ?", skill.FacilitatorID, skill.ModuleID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(skill).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&existing).
		Updates(map[string]interface{}{
			"skill_level":            skill.SkillLevel,
			"experience_description": skill.ExperienceDescription,
			"updated_by":             skill.UpdatedBy,
		}).Error
}

func (r *facilitatorSkillRepo) GetByFacilitatorAndModule(ctx context.Context, facilitatorID, moduleID string) (*model.FacilitatorSkill, error) {
	var skill model.FacilitatorSkill
	err := r.db.WithContext(ctx).
		Where("facilitator_id = ? AND module_id = ?", facilitatorID, moduleID).
		First(&skill).Error
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// ListByFacilitatorAndUnit 某带教员在某单元全部模块上的技能声明
func (r *facilitatorSkillRepo) ListByFacilitatorAndUnit(ctx context.Context, facilitatorID, unitID string) ([]model.FacilitatorSkill, error) {
	var skills []model.FacilitatorSkill
	err := r.db.WithContext(ctx).
		Preload("Module").
		Joins("JOIN modules m ON m.module_id = facilitator_skills.module_id").
		Where("facilitator_skills.facilitator_id = ? AND m.unit_id = ? AND m.deleted_at IS NULL", facilitatorID, unitID).
		Find(&skills).Error
	return skills, err
}

func (r *facilitatorSkillRepo) ListByModule(ctx context.Context, moduleID string) ([]model.FacilitatorSkill, error) {
	var skills []model.FacilitatorSkill
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Find(&skills).Error
	return skills, err
}

func (r *facilitatorSkillRepo) DeleteByFacilitatorAndUnit(ctx context.Context, facilitatorID, unitID string) error {
	return r.db.WithContext(ctx).
		Where("facilitator_id = ? AND module_id IN (?)",
			facilitatorID,
			r.db.Model(&model.Module{}).Select("module_id").Where("unit_id = ?", unitID),
		).
		Delete(&model.FacilitatorSkill{}).Error
}
