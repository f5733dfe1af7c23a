package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
)

// UnavailabilityRepository 不可用时间数据访问接口
type UnavailabilityRepository interface {
	Create(ctx context.Context, entry *model.Unavailability) error
	BatchCreate(ctx context.Context, entries []model.Unavailability) error
	GetByID(ctx context.Context, id string) (*model.Unavailability, error)
	ListByUser(ctx context.Context, userID string, from, to *time.Time, offset, limit int) ([]model.Unavailability, int64, error)
	ListByUserOnDate(ctx context.Context, userID string, date time.Time) ([]model.Unavailability, error)
	ListBySourceSession(ctx context.Context, sessionID string) ([]model.Unavailability, error)
	// ExistsAuto 判断自动条目去重键 (user, unit, date, start, end, source_session) 是否已存在
	ExistsAuto(ctx context.Context, userID, unitID string, date time.Time, startTime, endTime, sourceSessionID string) (bool, error)
	Update(ctx context.Context, entry *model.Unavailability) error
	Delete(ctx context.Context, id string) error
	DeleteBySourceSessions(ctx context.Context, sessionIDs []string) (int64, error)
	DeleteBySourceSessionAndUser(ctx context.Context, sessionID, userID string) (int64, error)
	DeleteByRecurringGroup(ctx context.Context, userID, groupID string) (int64, error)
}

// unavailabilityRepo UnavailabilityRepository 的 GORM 实现
type unavailabilityRepo struct {
	db *gorm.DB
}

// NewUnavailabilityRepo 创建 UnavailabilityRepository 实例
func NewUnavailabilityRepo(db *gorm.DB) UnavailabilityRepository {
	return &unavailabilityRepo{db: db}
}

func (r *unavailabilityRepo) Create(ctx context.Context, entry *model.Unavailability) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *unavailabilityRepo) BatchCreate(ctx context.Context, entries []model.Unavailability) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *unavailabilityRepo) GetByID(ctx context.Context, id string) (*model.Unavailability, error) {
	var entry model.Unavailability
	err := r.db.WithContext(ctx).
		Where("unavailability_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *unavailabilityRepo) ListByUser(ctx context.Context, userID string, from, to *time.Time, offset, limit int) ([]model.Unavailability, int64, error) {
	var entries []model.Unavailability
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Unavailability{}).
		Where("user_id = ?", userID)
	if from != nil {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		db = db.Where("date <= ?", to.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("date ASC, start_time ASC NULLS FIRST").
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ListByUserOnDate 某用户在某一天的全部不可用条目（含全天与自动条目）
func (r *unavailabilityRepo) ListByUserOnDate(ctx context.Context, userID string, date time.Time) ([]model.Unavailability, error) {
	var entries []model.Unavailability
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
		Find(&entries).Error
	return entries, err
}

// ListBySourceSession 某课节传播出的全部自动条目（重新发布时清理失效条目用）
func (r *unavailabilityRepo) ListBySourceSession(ctx context.Context, sessionID string) ([]model.Unavailability, error) {
	var entries []model.Unavailability
	err := r.db.WithContext(ctx).
		Where("source_session_id = ?", sessionID).
		Find(&entries).Error
	return entries, err
}

func (r *unavailabilityRepo) ExistsAuto(ctx context.Context, userID, unitID string, date time.Time, startTime, endTime, sourceSessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Unavailability{}).
		Where("user_id = ? AND unit_id = ? AND date = ? AND start_time = ? AND end_time = ? AND source_session_id = ?",
			userID, unitID, date.Format("2006-01-02"), startTime, endTime, sourceSessionID).
		Count(&count).Error
	return count > 0, err
}

func (r *unavailabilityRepo) Update(ctx context.Context, entry *model.Unavailability) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *unavailabilityRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("unavailability_id = ?", id).
		Delete(&model.Unavailability{}).Error
}

// DeleteBySourceSessions 按来源课节批量回收自动条目（撤销发布时调用）
func (r *unavailabilityRepo) DeleteBySourceSessions(ctx context.Context, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("source_session_id IN ?", sessionIDs).
		Delete(&model.Unavailability{})
	return result.RowsAffected, result.Error
}

// DeleteBySourceSessionAndUser 回收某课节为某用户生成的自动条目（换班改派时调用）
func (r *unavailabilityRepo) DeleteBySourceSessionAndUser(ctx context.Context, sessionID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("source_session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&model.Unavailability{})
	return result.RowsAffected, result.Error
}

func (r *unavailabilityRepo) DeleteByRecurringGroup(ctx context.Context, userID, groupID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recurring_group_id = ? AND source_session_id IS NULL", userID, groupID).
		Delete(&model.Unavailability{})
	return result.RowsAffected, result.Error
}
