package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
	pkgerrors "campus-roster/backend/pkg/errors"
)

// SessionRepository 课节数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListByModule(ctx context.Context, moduleID string) ([]model.Session, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.Session, error)
	ListIDsByUnit(ctx context.Context, unitID string) ([]string, error)
	ListByUnitOnDate(ctx context.Context, unitID string, date time.Time) ([]model.Session, error)
	CountByModule(ctx context.Context, moduleID string) (int64, error)
	Update(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

// sessionRepo SessionRepository 的 GORM 实现
type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("Module").
		Preload("Module.Unit").
		Preload("Assignments").
		Preload("Assignments.Facilitator").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByModule(ctx context.Context, moduleID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Assignments.Facilitator").
		Where("module_id = ?", moduleID).
		Order("date ASC, start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListByUnit(ctx context.Context, unitID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Preload("Module").
		Preload("Assignments").
		Preload("Assignments.Facilitator").
		Joins("JOIN modules m ON m.module_id = sessions.module_id").
		Where("m.unit_id = ? AND m.deleted_at IS NULL", unitID).
		Order("sessions.date ASC, sessions.start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListIDsByUnit(ctx context.Context, unitID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Joins("JOIN modules m ON m.module_id = sessions.module_id").
		Where("m.unit_id = ? AND m.deleted_at IS NULL", unitID).
		Pluck("sessions.session_id", &ids).Error
	return ids, err
}

func (r *sessionRepo) ListByUnitOnDate(ctx context.Context, unitID string, date time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Joins("JOIN modules m ON m.module_id = sessions.module_id").
		Where("m.unit_id = ? AND m.deleted_at IS NULL AND sessions.date = ?", unitID, date.Format("2006-01-02")).
		Order("sessions.start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) CountByModule(ctx context.Context, moduleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error
	return count, err
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	oldVersion := session.Version
	result := r.db.WithContext(ctx).
		Model(session).
		Where("session_id = ? AND version = ?", session.SessionID, oldVersion).
		Updates(map[string]interface{}{
			"date":         session.Date,
			"start_time":   session.StartTime,
			"end_time":     session.EndTime,
			"location":     session.Location,
			"session_type": session.SessionType,
			"status":       session.Status,
			"updated_by":   session.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version = oldVersion + 1
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&model.Session{}).Error
}
