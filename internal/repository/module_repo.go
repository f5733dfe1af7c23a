package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
)

// ModuleRepository 教学模块数据访问接口
type ModuleRepository interface {
	Create(ctx context.Context, m *model.Module) error
	GetByID(ctx context.Context, id string) (*model.Module, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.Module, error)
	ListIDsByUnit(ctx context.Context, unitID string) ([]string, error)
	Update(ctx context.Context, m *model.Module) error
	Delete(ctx context.Context, id string) error
}

// moduleRepo ModuleRepository 的 GORM 实现
type moduleRepo struct {
	db *gorm.DB
}

// NewModuleRepo 创建 ModuleRepository 实例
func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, m *model.Module) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *moduleRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	var m model.Module
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("module_id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) ListByUnit(ctx context.Context, unitID string) ([]model.Module, error) {
	var modules []model.Module
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("module_name ASC").
		Find(&modules).Error
	return modules, err
}

func (r *moduleRepo) ListIDsByUnit(ctx context.Context, unitID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Module{}).
		Where("unit_id = ?", unitID).
		Pluck("module_id", &ids).Error
	return ids, err
}

func (r *moduleRepo) Update(ctx context.Context, m *model.Module) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *moduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("module_id = ?", id).
		Delete(&model.Module{}).Error
}
