package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
	pkgerrors "campus-roster/backend/pkg/errors"
)

// UnitRepository 教学单元数据访问接口
type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	GetByID(ctx context.Context, id string) (*model.Unit, error)
	GetByCode(ctx context.Context, unitCode string, year int, semester string) (*model.Unit, error)
	List(ctx context.Context, year int, semester string, offset, limit int) ([]model.Unit, int64, error)
	ListPublishedByFacilitator(ctx context.Context, facilitatorID string) ([]model.Unit, error)
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id string) error

	AddFacilitator(ctx context.Context, unitID, userID string) error
	RemoveFacilitator(ctx context.Context, unitID, userID string) error
	IsFacilitator(ctx context.Context, unitID, userID string) (bool, error)
	ListFacilitators(ctx context.Context, unitID string) ([]model.UnitFacilitator, error)
	ListUnitIDsByFacilitator(ctx context.Context, userID string) ([]string, error)

	AddCoordinator(ctx context.Context, unitID, userID string) error
	IsCoordinator(ctx context.Context, unitID, userID string) (bool, error)
	ListCoordinators(ctx context.Context, unitID string) ([]model.UnitCoordinator, error)
}

// unitRepo UnitRepository 的 GORM 实现
type unitRepo struct {
	db *gorm.DB
}

// NewUnitRepo 创建 UnitRepository 实例
func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) Create(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) GetByCode(ctx context.Context, unitCode string, year int, semester string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Where("unit_code = ? AND year = ? AND semester = ?", unitCode, year, semester).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) List(ctx context.Context, year int, semester string, offset, limit int) ([]model.Unit, int64, error) {
	var units []model.Unit
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Unit{})
	if year > 0 {
		db = db.Where("year = ?", year)
	}
	if semester != "" {
		db = db.Where("semester = ?", semester)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("year DESC, semester ASC, unit_code ASC").
		Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}

// ListPublishedByFacilitator 某带教员参与的、已发布的全部单元
func (r *unitRepo) ListPublishedByFacilitator(ctx context.Context, facilitatorID string) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Joins("JOIN unit_facilitators uf ON uf.unit_id = units.unit_id").
		Where("uf.user_id = ? AND units.schedule_status = ?", facilitatorID, model.ScheduleStatusPublished).
		Find(&units).Error
	return units, err
}

func (r *unitRepo) Update(ctx context.Context, unit *model.Unit) error {
	oldVersion := unit.Version
	result := r.db.WithContext(ctx).
		Model(unit).
		Where("unit_id = ? AND version = ?", unit.UnitID, oldVersion).
		Updates(map[string]interface{}{
			"unit_name":       unit.UnitName,
			"start_date":      unit.StartDate,
			"end_date":        unit.EndDate,
			"schedule_status": unit.ScheduleStatus,
			"published_at":    unit.PublishedAt,
			"published_by":    unit.PublishedBy,
			"unpublished_at":  unit.UnpublishedAt,
			"unpublished_by":  unit.UnpublishedBy,
			"updated_by":      unit.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	unit.Version = oldVersion + 1
	return nil
}

func (r *unitRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("unit_id = ?", id).
		Delete(&model.Unit{}).Error
}

// ── 成员关系 ──

func (r *unitRepo) AddFacilitator(ctx context.Context, unitID, userID string) error {
	return r.db.WithContext(ctx).Create(&model.UnitFacilitator{
		UnitID: unitID,
		UserID: userID,
	}).Error
}

func (r *unitRepo) RemoveFacilitator(ctx context.Context, unitID, userID string) error {
	return r.db.WithContext(ctx).
		Where("unit_id = ? AND user_id = ?", unitID, userID).
		Delete(&model.UnitFacilitator{}).Error
}

func (r *unitRepo) IsFacilitator(ctx context.Context, unitID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UnitFacilitator{}).
		Where("unit_id = ? AND user_id = ?", unitID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *unitRepo) ListFacilitators(ctx context.Context, unitID string) ([]model.UnitFacilitator, error) {
	var members []model.UnitFacilitator
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *unitRepo) ListUnitIDsByFacilitator(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UnitFacilitator{}).
		Where("user_id = ?", userID).
		Pluck("unit_id", &ids).Error
	return ids, err
}

func (r *unitRepo) AddCoordinator(ctx context.Context, unitID, userID string) error {
	return r.db.WithContext(ctx).Create(&model.UnitCoordinator{
		UnitID: unitID,
		UserID: userID,
	}).Error
}

func (r *unitRepo) IsCoordinator(ctx context.Context, unitID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UnitCoordinator{}).
		Where("unit_id = ? AND user_id = ?", unitID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *unitRepo) ListCoordinators(ctx context.Context, unitID string) ([]model.UnitCoordinator, error) {
	var members []model.UnitCoordinator
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}
