package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
	pkgerrors "campus-roster/backend/pkg/errors"
)

// AssignmentRepository 课节指派数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	GetBySessionAndFacilitator(ctx context.Context, sessionID, facilitatorID string) (*model.Assignment, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Assignment, error)
	ListByFacilitator(ctx context.Context, facilitatorID string) ([]model.Assignment, error)
	ListByFacilitatorOnDate(ctx context.Context, facilitatorID string, date time.Time) ([]model.Assignment, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	Delete(ctx context.Context, id string) error
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("Session.Module").
		Preload("Facilitator").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) GetBySessionAndFacilitator(ctx context.Context, sessionID, facilitatorID string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND facilitator_id = ?", sessionID, facilitatorID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Facilitator").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListByFacilitator(ctx context.Context, facilitatorID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("Session.Module").
		Where("facilitator_id = ?", facilitatorID).
		Find(&assignments).Error
	return assignments, err
}

// ListByFacilitatorOnDate 某带教员在某一天的全部指派（含课节信息，用于冲突检测）
func (r *assignmentRepo) ListByFacilitatorOnDate(ctx context.Context, facilitatorID string, date time.Time) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("Session.Module").
		Joins("JOIN sessions s ON s.session_id = assignments.session_id").
		Where("assignments.facilitator_id = ? AND s.date = ? AND s.deleted_at IS NULL",
			facilitatorID, date.Format("2006-01-02")).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListByUnit(ctx context.Context, unitID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("Session.Module").
		Preload("Facilitator").
		Joins("JOIN sessions s ON s.session_id = assignments.session_id").
		Joins("JOIN modules m ON m.module_id = s.module_id").
		Where("m.unit_id = ? AND s.deleted_at IS NULL AND m.deleted_at IS NULL", unitID).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.Assignment) error {
	oldVersion := assignment.Version
	result := r.db.WithContext(ctx).
		Model(assignment).
		Where("assignment_id = ? AND version = ?", assignment.AssignmentID, oldVersion).
		Updates(map[string]interface{}{
			"facilitator_id": assignment.FacilitatorID,
			"is_confirmed":   assignment.IsConfirmed,
			"updated_by":     assignment.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	assignment.Version = oldVersion + 1
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Delete(&model.Assignment{}).Error
}
