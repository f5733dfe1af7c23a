package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 发布模块业务错误 ──

var (
	ErrNotPublished = errors.New("排班未发布")
	ErrUnitEnded    = errors.New("单元已结束，不可撤回发布")
)

// UnpublishBlockedError 撤回保护窗口内存在临近课节时返回
type UnpublishBlockedError struct {
	UpcomingSessions int
	WindowDays       int
}

func (e *UnpublishBlockedError) Error() string {
	return fmt.Sprintf("未来 %d 天内有 %d 个课节，暂不可撤回发布", e.WindowDays, e.UpcomingSessions)
}

// PublicationService 发布状态机业务接口
//
// 发布将单元内全部课节置为 published，并把每条指派投影为
// 其他单元的自动不可用条目；对已发布单元重复执行是幂等的：
// 先清理指派人已变更的失效自动条目，再重新传播，去重键保证
// 不产生重复行。撤回发布执行完整逆操作：回收全部自动条目、
// 级联拒绝未决换班申请、课节退回发布前状态。
// 手动不可用条目不受发布状态机影响。
type PublicationService interface {
	Publish(ctx context.Context, unitID string, req *dto.PublishRequest, callerID string) (*dto.PublicationResponse, error)
	Unpublish(ctx context.Context, unitID string, req *dto.UnpublishRequest, callerID string) (*dto.PublicationResponse, error)
	// Republish 对已发布单元重跑发布：修复失效条目并重新传播，语义与 Publish 一致
	Republish(ctx context.Context, unitID string, req *dto.PublishRequest, callerID string) (*dto.PublicationResponse, error)
}

type publicationService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewPublicationService 创建 PublicationService 实例
func NewPublicationService(cfg *config.Config, repo *repository.Repository, notifier Notifier, logger *zap.Logger) PublicationService {
	return &publicationService{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Publish — 发布排班
// ════════════════════════════════════════════════════════════

func (s *publicationService) Publish(ctx context.Context, unitID string, req *dto.PublishRequest, callerID string) (*dto.PublicationResponse, error) {
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.doPublish(ctx, unit, req.Version, callerID)
}

func (s *publicationService) Republish(ctx context.Context, unitID string, req *dto.PublishRequest, callerID string) (*dto.PublicationResponse, error) {
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.doPublish(ctx, unit, req.Version, callerID)
}

func (s *publicationService) doPublish(ctx context.Context, unit *model.Unit, version int, callerID string) (*dto.PublicationResponse, error) {
	now := time.Now()
	var (
		sessionCount    int
		assignmentCount int
		blocksCreated   int
		staleRemoved    int
		assignedUserIDs = make(map[string]bool)
	)

	err := s.repo.Tx(ctx, func(tx *repository.Repository) error {
		sessions, err := tx.Session.ListByUnit(ctx, unit.UnitID)
		if err != nil {
			return err
		}
		sessionCount = len(sessions)

		for i := range sessions {
			session := &sessions[i]

			// 失效条目清理：来源课节的指派人已变更时，旧主的自动条目作废
			assignees := make(map[string]bool, len(session.Assignments))
			for j := range session.Assignments {
				assignees[session.Assignments[j].FacilitatorID] = true
			}
			existing, err := tx.Unavailability.ListBySourceSession(ctx, session.SessionID)
			if err != nil {
				return err
			}
			for k := range existing {
				if assignees[existing[k].UserID] {
					continue
				}
				removed, err := tx.Unavailability.DeleteBySourceSessionAndUser(ctx, session.SessionID, existing[k].UserID)
				if err != nil {
					return err
				}
				staleRemoved += int(removed)
			}

			for j := range session.Assignments {
				a := &session.Assignments[j]
				assignmentCount++
				assignedUserIDs[a.FacilitatorID] = true

				created, err := createAutoBlocks(ctx, tx, session, a.FacilitatorID, unit.UnitID)
				if err != nil {
					return err
				}
				blocksCreated += created
			}

			if session.Status != model.SessionStatusPublished {
				session.Status = model.SessionStatusPublished
				session.UpdatedBy = &callerID
				if err := tx.Session.Update(ctx, session); err != nil {
					return err
				}
			}
		}

		unit.ScheduleStatus = model.ScheduleStatusPublished
		unit.PublishedAt = &now
		unit.PublishedBy = &callerID
		unit.UnpublishedAt = nil
		unit.UnpublishedBy = nil
		unit.UpdatedBy = &callerID
		unit.Version = version
		return tx.Unit.Update(ctx, unit)
	})
	if err != nil {
		s.logger.Error("发布排班失败", zap.String("unit_id", unit.UnitID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班已发布",
		zap.String("unit_id", unit.UnitID),
		zap.String("unit_code", unit.UnitCode),
		zap.Int("sessions", sessionCount),
		zap.Int("assignments", assignmentCount),
		zap.Int("auto_blocks_created", blocksCreated),
		zap.Int("stale_blocks_removed", staleRemoved),
	)

	// 事务提交后再发通知，通知失败不回滚业务
	notified := s.notifyAssigned(ctx, assignedUserIDs,
		model.NotificationTypeSchedulePublished,
		fmt.Sprintf("%s 排班已发布", unit.UnitCode),
		fmt.Sprintf("%s (%s %d) 的排班已发布，请查看你的课节安排。", unit.UnitCode, unit.Semester, unit.Year),
	)

	return &dto.PublicationResponse{
		Unit:                toUnitResponse(unit),
		SessionCount:        sessionCount,
		AssignmentCount:     assignmentCount,
		AutoBlocksCreated:   blocksCreated,
		AutoBlocksRemoved:   staleRemoved,
		NotificationsQueued: notified,
	}, nil
}

// ════════════════════════════════════════════════════════════
// Unpublish — 撤回发布
// ════════════════════════════════════════════════════════════

func (s *publicationService) Unpublish(ctx context.Context, unitID string, req *dto.UnpublishRequest, callerID string) (*dto.PublicationResponse, error) {
	unit, err := s.getUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.ScheduleStatus != model.ScheduleStatusPublished {
		return nil, ErrNotPublished
	}

	today := time.Now().Truncate(24 * time.Hour)
	if unit.EndDate.Before(today) {
		return nil, ErrUnitEnded
	}

	now := time.Now()
	var (
		sessionCount    int
		assignmentCount int
		blocksRemoved   int64
		swapsRejected   int
		assignedUserIDs = make(map[string]bool)
	)

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		sessions, err := tx.Session.ListByUnit(ctx, unit.UnitID)
		if err != nil {
			return err
		}
		sessionCount = len(sessions)

		// 撤回保护窗口：临近开课的课节存在时硬性拒绝
		if s.cfg.Scheduling.UnpublishGuardDays > 0 {
			guardEnd := today.AddDate(0, 0, s.cfg.Scheduling.UnpublishGuardDays)
			upcoming := 0
			for i := range sessions {
				d := sessions[i].Date.Truncate(24 * time.Hour)
				if !d.Before(today) && !d.After(guardEnd) {
					upcoming++
				}
			}
			if upcoming > 0 {
				return &UnpublishBlockedError{
					UpcomingSessions: upcoming,
					WindowDays:       s.cfg.Scheduling.UnpublishGuardDays,
				}
			}
		}

		sessionIDs := make([]string, 0, len(sessions))
		assignmentIDs := make([]string, 0)
		for i := range sessions {
			sessionIDs = append(sessionIDs, sessions[i].SessionID)
			for j := range sessions[i].Assignments {
				assignmentCount++
				assignmentIDs = append(assignmentIDs, sessions[i].Assignments[j].AssignmentID)
				assignedUserIDs[sessions[i].Assignments[j].FacilitatorID] = true
			}
		}

		// 1. 回收全部自动不可用条目（手动条目不受影响）
		blocksRemoved, err = tx.Unavailability.DeleteBySourceSessions(ctx, sessionIDs)
		if err != nil {
			return err
		}

		// 2. 级联拒绝引用本单元指派的未决换班申请
		pending, err := tx.SwapRequest.ListNonTerminalByAssignments(ctx, assignmentIDs)
		if err != nil {
			return err
		}
		for i := range pending {
			swap := &pending[i]
			swap.Status = model.SwapStatusRejected
			swap.RejectionReason = "排班已被协调员撤回"
			swap.UpdatedBy = &callerID
			if err := tx.SwapRequest.Update(ctx, swap); err != nil {
				return err
			}
			swapsRejected++
		}

		// 3. 课节退回发布前状态
		for i := range sessions {
			session := &sessions[i]
			if len(session.Assignments) > 0 {
				session.Status = model.SessionStatusAssigned
			} else {
				session.Status = model.SessionStatusUnassigned
			}
			session.UpdatedBy = &callerID
			if err := tx.Session.Update(ctx, session); err != nil {
				return err
			}
		}

		unit.ScheduleStatus = model.ScheduleStatusDraft
		unit.UnpublishedAt = &now
		unit.UnpublishedBy = &callerID
		unit.UpdatedBy = &callerID
		unit.Version = req.Version
		return tx.Unit.Update(ctx, unit)
	})
	if err != nil {
		var blockedErr *UnpublishBlockedError
		if !errors.As(err, &blockedErr) {
			s.logger.Error("撤回发布失败", zap.String("unit_id", unit.UnitID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("排班已撤回",
		zap.String("unit_id", unit.UnitID),
		zap.String("unit_code", unit.UnitCode),
		zap.Int64("auto_blocks_removed", blocksRemoved),
		zap.Int("swaps_rejected", swapsRejected),
	)

	notified := s.notifyAssigned(ctx, assignedUserIDs,
		model.NotificationTypeScheduleUnpublished,
		fmt.Sprintf("%s 排班已撤回", unit.UnitCode),
		fmt.Sprintf("%s (%s %d) 的排班已被协调员撤回，原有课节安排暂不生效。", unit.UnitCode, unit.Semester, unit.Year),
	)

	return &dto.PublicationResponse{
		Unit:                toUnitResponse(unit),
		SessionCount:        sessionCount,
		AssignmentCount:     assignmentCount,
		AutoBlocksRemoved:   int(blocksRemoved),
		SwapsRejected:       swapsRejected,
		NotificationsQueued: notified,
	}, nil
}

// ── 内部辅助 ──

func (s *publicationService) getUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("查询单元失败", zap.Error(err))
		return nil, err
	}
	return unit, nil
}

// notifyAssigned 给受影响的带教员逐个发通知，返回成功条数
func (s *publicationService) notifyAssigned(ctx context.Context, userIDs map[string]bool, notifType, subject, message string) int {
	users := make([]model.User, 0, len(userIDs))
	for id := range userIDs {
		user, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("查询通知接收人失败", zap.String("user_id", id), zap.Error(err))
			continue
		}
		users = append(users, *user)
	}
	return s.notifier.NotifyAll(ctx, users, notifType, subject, message)
}
