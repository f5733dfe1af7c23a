package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 不可用时段模块业务错误 ──

var (
	ErrUnavailabilityNotFound  = errors.New("不可用时间不存在")
	ErrUnavailabilityProtected = errors.New("系统自动生成的不可用时间不可修改或删除")
	ErrInvalidDateRange        = errors.New("结束日期必须不早于开始日期")
	ErrTimeRangeRequired       = errors.New("非全天条目必须提供起止时间")
	ErrRecurringTooMany        = errors.New("周期生成的条目数超出单次上限")
)

// UnavailabilityService 不可用时间业务接口
// 自动条目（source_session_id 非空）只读，仅发布状态机与换班引擎可回收
type UnavailabilityService interface {
	Create(ctx context.Context, userID string, req *dto.CreateUnavailabilityRequest) (*dto.UnavailabilityResponse, error)
	Update(ctx context.Context, userID, entryID string, req *dto.CreateUnavailabilityRequest) (*dto.UnavailabilityResponse, error)
	Delete(ctx context.Context, userID, entryID string) error
	List(ctx context.Context, userID string, req *dto.UnavailabilityListRequest) ([]dto.UnavailabilityResponse, int64, error)
	// GenerateRecurring 按周生成一组手动条目，同组共享 recurring_group_id
	GenerateRecurring(ctx context.Context, userID string, req *dto.GenerateRecurringRequest) (*dto.RecurringResultResponse, error)
	// DeleteRecurringGroup 删除整组周期条目，返回删除条数
	DeleteRecurringGroup(ctx context.Context, userID, groupID string) (int64, error)
}

type unavailabilityService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUnavailabilityService 创建 UnavailabilityService 实例
func NewUnavailabilityService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) UnavailabilityService {
	return &unavailabilityService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 创建手动条目
// ════════════════════════════════════════════════════════════

func (s *unavailabilityService) Create(ctx context.Context, userID string, req *dto.CreateUnavailabilityRequest) (*dto.UnavailabilityResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := validateTimeFields(req.IsFullDay, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	entry := &model.Unavailability{
		UserID:    userID,
		UnitID:    req.UnitID,
		Date:      date,
		IsFullDay: req.IsFullDay,
		Reason:    req.Reason,
	}
	if !req.IsFullDay {
		entry.StartTime = req.StartTime
		entry.EndTime = req.EndTime
	}
	entry.CreatedBy = &userID
	entry.UpdatedBy = &userID

	if err := s.repo.Unavailability.Create(ctx, entry); err != nil {
		s.logger.Error("创建不可用时间失败", zap.Error(err))
		return nil, err
	}

	resp := toUnavailabilityResponse(entry)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Update — 更新手动条目（自动条目保护）
// ════════════════════════════════════════════════════════════

func (s *unavailabilityService) Update(ctx context.Context, userID, entryID string, req *dto.CreateUnavailabilityRequest) (*dto.UnavailabilityResponse, error) {
	entry, err := s.getOwnEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsAutoGenerated() {
		return nil, ErrUnavailabilityProtected
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := validateTimeFields(req.IsFullDay, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	entry.Date = date
	entry.IsFullDay = req.IsFullDay
	entry.Reason = req.Reason
	entry.UnitID = req.UnitID
	if req.IsFullDay {
		entry.StartTime = nil
		entry.EndTime = nil
	} else {
		entry.StartTime = req.StartTime
		entry.EndTime = req.EndTime
	}
	entry.UpdatedBy = &userID

	if err := s.repo.Unavailability.Update(ctx, entry); err != nil {
		s.logger.Error("更新不可用时间失败", zap.Error(err))
		return nil, err
	}

	resp := toUnavailabilityResponse(entry)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Delete — 删除手动条目（自动条目保护）
// ════════════════════════════════════════════════════════════

func (s *unavailabilityService) Delete(ctx context.Context, userID, entryID string) error {
	entry, err := s.getOwnEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if entry.IsAutoGenerated() {
		return ErrUnavailabilityProtected
	}
	if err := s.repo.Unavailability.Delete(ctx, entryID); err != nil {
		s.logger.Error("删除不可用时间失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// List — 列表
// ════════════════════════════════════════════════════════════

func (s *unavailabilityService) List(ctx context.Context, userID string, req *dto.UnavailabilityListRequest) ([]dto.UnavailabilityResponse, int64, error) {
	var from, to *time.Time
	if req.From != "" {
		t, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, 0, ErrInvalidDate
		}
		from = &t
	}
	if req.To != "" {
		t, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, 0, ErrInvalidDate
		}
		to = &t
	}

	entries, total, err := s.repo.Unavailability.ListByUser(ctx, userID, from, to, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询不可用时间失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UnavailabilityResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toUnavailabilityResponse(&entries[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// GenerateRecurring — 周期生成
// ════════════════════════════════════════════════════════════

func (s *unavailabilityService) GenerateRecurring(ctx context.Context, userID string, req *dto.GenerateRecurringRequest) (*dto.RecurringResultResponse, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if err := validateTimeFields(req.IsFullDay, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	// 对齐到首个匹配的星期
	cursor := start
	for int(cursor.Weekday()) != req.Weekday {
		cursor = cursor.AddDate(0, 0, 1)
	}

	var dates []time.Time
	for !cursor.After(end) {
		dates = append(dates, cursor)
		cursor = cursor.AddDate(0, 0, 7)
	}
	if max := s.cfg.Scheduling.RecurringMaxEntries; max > 0 && len(dates) > max {
		return nil, fmt.Errorf("%w: %d > %d", ErrRecurringTooMany, len(dates), max)
	}

	groupID := uuid.NewString()
	entries := make([]model.Unavailability, 0, len(dates))
	for _, d := range dates {
		entry := model.Unavailability{
			UserID:           userID,
			UnitID:           req.UnitID,
			Date:             d,
			IsFullDay:        req.IsFullDay,
			Reason:           req.Reason,
			RecurringGroupID: &groupID,
		}
		if !req.IsFullDay {
			entry.StartTime = req.StartTime
			entry.EndTime = req.EndTime
		}
		entry.CreatedBy = &userID
		entry.UpdatedBy = &userID
		entries = append(entries, entry)
	}

	if err := s.repo.Unavailability.BatchCreate(ctx, entries); err != nil {
		s.logger.Error("批量创建周期条目失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.RecurringResultResponse{
		GroupID: groupID,
		Created: len(entries),
		Entries: make([]dto.UnavailabilityResponse, 0, len(entries)),
	}
	for i := range entries {
		resp.Entries = append(resp.Entries, toUnavailabilityResponse(&entries[i]))
	}
	return resp, nil
}

func (s *unavailabilityService) DeleteRecurringGroup(ctx context.Context, userID, groupID string) (int64, error) {
	deleted, err := s.repo.Unavailability.DeleteByRecurringGroup(ctx, userID, groupID)
	if err != nil {
		s.logger.Error("删除周期条目组失败", zap.Error(err))
		return 0, err
	}
	return deleted, nil
}

// ── 内部辅助 ──

func (s *unavailabilityService) getOwnEntry(ctx context.Context, userID, entryID string) (*model.Unavailability, error) {
	entry, err := s.repo.Unavailability.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnavailabilityNotFound
		}
		s.logger.Error("查询不可用时间失败", zap.Error(err))
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrUnavailabilityNotFound
	}
	return entry, nil
}

// validateTimeFields 非全天条目必须带合法起止时间
func validateTimeFields(isFullDay bool, startTime, endTime *string) error {
	if isFullDay {
		return nil
	}
	if startTime == nil || endTime == nil {
		return ErrTimeRangeRequired
	}
	if *endTime <= *startTime {
		return ErrInvalidTimeRange
	}
	return nil
}

// toUnavailabilityResponse 转换不可用条目为响应
func toUnavailabilityResponse(entry *model.Unavailability) dto.UnavailabilityResponse {
	return dto.UnavailabilityResponse{
		ID:               entry.UnavailabilityID,
		UserID:           entry.UserID,
		UnitID:           entry.UnitID,
		Date:             entry.Date.Format("2006-01-02"),
		StartTime:        entry.StartTime,
		EndTime:          entry.EndTime,
		IsFullDay:        entry.IsFullDay,
		Reason:           entry.Reason,
		IsAutoGenerated:  entry.IsAutoGenerated(),
		RecurringGroupID: entry.RecurringGroupID,
		CreatedAt:        entry.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
