package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 指派模块业务错误 ──

var (
	ErrSessionNotFound    = errors.New("课节不存在")
	ErrAssignmentNotFound = errors.New("指派不存在")
	ErrInvalidDate        = errors.New("日期格式不正确")
	ErrInvalidTimeRange   = errors.New("结束时间必须晚于开始时间")
)

// 批量指派模式
const (
	BulkModeBestEffort   = "best_effort"
	BulkModeAllOrNothing = "all_or_nothing"
)

// AssignmentService 课节指派业务接口
type AssignmentService interface {
	// Assign 指派带教员到课节；硬冲突必拒，软冲突随成功结果返回
	Assign(ctx context.Context, req *dto.AssignRequest, callerID string) (*dto.AssignmentResponse, error)
	// Unassign 撤销指派，回收其传播的自动不可用条目
	Unassign(ctx context.Context, assignmentID, callerID string) error
	// BulkAssign 批量指派，支持 best_effort / all_or_nothing 两种模式
	BulkAssign(ctx context.Context, req *dto.BulkAssignRequest, callerID string) (*dto.BulkAssignResultResponse, error)
	// CheckAvailability 独立的可用性检测（不落库）
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error)
	// ListBySession 课节的全部指派
	ListBySession(ctx context.Context, sessionID string) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo     *repository.Repository
	conflict ConflictService
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, conflict ConflictService, notifier Notifier, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, conflict: conflict, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Assign — 单次指派
// ════════════════════════════════════════════════════════════

func (s *assignmentService) Assign(ctx context.Context, req *dto.AssignRequest, callerID string) (*dto.AssignmentResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课节失败", zap.Error(err))
		return nil, err
	}
	if session.Module == nil || session.Module.Unit == nil {
		return nil, ErrSessionNotFound
	}
	unit := session.Module.Unit

	findings, err := s.conflict.CheckAssignment(ctx, session, unit.UnitID, req.FacilitatorID)
	if err != nil {
		return nil, err
	}
	if hasBlockingFinding(findings) {
		return nil, &ConflictError{Findings: findings}
	}

	var assignment *model.Assignment
	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		var txErr error
		assignment, txErr = s.applyAssign(ctx, tx, session, unit, req.FacilitatorID, callerID)
		return txErr
	})
	if err != nil {
		s.logger.Error("创建指派失败", zap.Error(err))
		return nil, err
	}

	if unit.ScheduleStatus == model.ScheduleStatusPublished {
		s.notifyAssigned(ctx, session, unit, req.FacilitatorID)
	}

	created, err := s.repo.Assignment.GetByID(ctx, assignment.AssignmentID)
	if err != nil {
		return nil, err
	}
	resp := toAssignmentResponse(created)
	// 软冲突不拦截，随成功结果一并返回供协调员知悉
	resp.Warnings = FindingsToDTO(findings)
	return &resp, nil
}

// applyAssign 在事务内落库一条指派：创建记录、推进课节状态、
// 已发布单元立即向其他单元传播自动条目
func (s *assignmentService) applyAssign(ctx context.Context, tx *repository.Repository, session *model.Session, unit *model.Unit, facilitatorID, callerID string) (*model.Assignment, error) {
	assignment := &model.Assignment{
		SessionID:     session.SessionID,
		FacilitatorID: facilitatorID,
	}
	assignment.CreatedBy = &callerID
	assignment.UpdatedBy = &callerID

	if err := tx.Assignment.Create(ctx, assignment); err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusUnassigned {
		session.Status = model.SessionStatusAssigned
		session.UpdatedBy = &callerID
		if err := tx.Session.Update(ctx, session); err != nil {
			return nil, err
		}
	}
	if unit.ScheduleStatus == model.ScheduleStatusPublished {
		if _, err := createAutoBlocks(ctx, tx, session, facilitatorID, unit.UnitID); err != nil {
			return nil, err
		}
	}
	return assignment, nil
}

// ════════════════════════════════════════════════════════════
// Unassign — 撤销指派
// ════════════════════════════════════════════════════════════

func (s *assignmentService) Unassign(ctx context.Context, assignmentID, callerID string) error {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.Error(err))
		return err
	}

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		if err := tx.Assignment.Delete(ctx, assignmentID); err != nil {
			return err
		}
		// 回收该指派传播的自动条目
		if _, err := tx.Unavailability.DeleteBySourceSessionAndUser(ctx, assignment.SessionID, assignment.FacilitatorID); err != nil {
			return err
		}
		// 无剩余指派则课节退回未指派状态
		remaining, err := tx.Assignment.ListBySession(ctx, assignment.SessionID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 && assignment.Session != nil {
			assignment.Session.Status = model.SessionStatusUnassigned
			assignment.Session.UpdatedBy = &callerID
			if err := tx.Session.Update(ctx, assignment.Session); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("撤销指派失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// BulkAssign — 批量指派
// ════════════════════════════════════════════════════════════

func (s *assignmentService) BulkAssign(ctx context.Context, req *dto.BulkAssignRequest, callerID string) (*dto.BulkAssignResultResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = BulkModeBestEffort
	}

	result := &dto.BulkAssignResultResponse{
		Succeeded: make([]dto.AssignmentResponse, 0, len(req.Items)),
	}

	if mode == BulkModeAllOrNothing {
		return s.bulkAssignAtomic(ctx, req, result, callerID)
	}

	for _, item := range req.Items {
		resp, err := s.Assign(ctx, &dto.AssignRequest{
			SessionID:     item.SessionID,
			FacilitatorID: item.FacilitatorID,
		}, callerID)
		if err != nil {
			var conflictErr *ConflictError
			failure := dto.BulkAssignFailure{
				SessionID:     item.SessionID,
				FacilitatorID: item.FacilitatorID,
				Message:       err.Error(),
			}
			if errors.As(err, &conflictErr) {
				failure.Findings = FindingsToDTO(conflictErr.Findings)
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Succeeded = append(result.Succeeded, *resp)
	}

	return result, nil
}

// bulkAssignAtomic all_or_nothing 模式：全量预检后整批在单事务内落库，
// 任一项失败整批回滚，不留下已提交的部分结果
func (s *assignmentService) bulkAssignAtomic(ctx context.Context, req *dto.BulkAssignRequest, result *dto.BulkAssignResultResponse, callerID string) (*dto.BulkAssignResultResponse, error) {
	// 全量预检，任一硬冲突则整体拒绝
	for _, item := range req.Items {
		session, err := s.repo.Session.GetByID(ctx, item.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Failed = append(result.Failed, dto.BulkAssignFailure{
					SessionID:     item.SessionID,
					FacilitatorID: item.FacilitatorID,
					Message:       ErrSessionNotFound.Error(),
				})
				return result, nil
			}
			return nil, err
		}
		findings, err := s.conflict.CheckAssignment(ctx, session, session.Module.UnitID, item.FacilitatorID)
		if err != nil {
			return nil, err
		}
		if hasBlockingFinding(findings) {
			result.Failed = append(result.Failed, dto.BulkAssignFailure{
				SessionID:     item.SessionID,
				FacilitatorID: item.FacilitatorID,
				Findings:      FindingsToDTO(findings),
				Message:       "存在排班冲突，整批已取消",
			})
			return result, nil
		}
	}

	type appliedItem struct {
		assignment *model.Assignment
		session    *model.Session
		unit       *model.Unit
	}
	var (
		created    []appliedItem
		failedItem *dto.BulkAssignItem
	)
	err := s.repo.Tx(ctx, func(tx *repository.Repository) error {
		for i := range req.Items {
			item := req.Items[i]
			session, err := tx.Session.GetByID(ctx, item.SessionID)
			if err != nil {
				failedItem = &item
				return err
			}
			if session.Module == nil || session.Module.Unit == nil {
				failedItem = &item
				return ErrSessionNotFound
			}
			// 预检读不到同批在前项的写入，事务内兜底查重
			existing, err := tx.Assignment.GetBySessionAndFacilitator(ctx, session.SessionID, item.FacilitatorID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				failedItem = &item
				return err
			}
			if existing != nil {
				failedItem = &item
				return &ConflictError{Findings: []Finding{{
					Reason:   ConflictReasonDuplicate,
					Detail:   "该带教员已被指派到此课节",
					Blocking: true,
				}}}
			}
			assignment, err := s.applyAssign(ctx, tx, session, session.Module.Unit, item.FacilitatorID, callerID)
			if err != nil {
				failedItem = &item
				return err
			}
			created = append(created, appliedItem{assignment: assignment, session: session, unit: session.Module.Unit})
		}
		return nil
	})
	if err != nil {
		failure := dto.BulkAssignFailure{Message: "存在排班冲突，整批已回滚"}
		if failedItem != nil {
			failure.SessionID = failedItem.SessionID
			failure.FacilitatorID = failedItem.FacilitatorID
		}
		var conflictErr *ConflictError
		if errors.As(err, &conflictErr) {
			failure.Findings = FindingsToDTO(conflictErr.Findings)
			result.Failed = append(result.Failed, failure)
			return result, nil
		}
		s.logger.Error("批量指派失败", zap.Error(err))
		return nil, err
	}

	for _, item := range created {
		full, err := s.repo.Assignment.GetByID(ctx, item.assignment.AssignmentID)
		if err != nil {
			return nil, err
		}
		result.Succeeded = append(result.Succeeded, toAssignmentResponse(full))
		if item.unit.ScheduleStatus == model.ScheduleStatusPublished {
			s.notifyAssigned(ctx, item.session, item.unit, full.FacilitatorID)
		}
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// CheckAvailability — 独立可用性检测
// ════════════════════════════════════════════════════════════

func (s *assignmentService) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if req.EndTime <= req.StartTime {
		return nil, ErrInvalidTimeRange
	}

	findings, err := s.conflict.CheckAvailability(ctx, req.FacilitatorID, date, req.StartTime, req.EndTime, req.ExcludeSessionID)
	if err != nil {
		return nil, err
	}

	return &dto.AvailabilityResponse{
		Available: len(findings) == 0,
		Findings:  FindingsToDTO(findings),
	}, nil
}

// ════════════════════════════════════════════════════════════
// ListBySession — 课节指派列表
// ════════════════════════════════════════════════════════════

func (s *assignmentService) ListBySession(ctx context.Context, sessionID string) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.Assignment.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询课节指派失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		result = append(result, toAssignmentResponse(&assignments[i]))
	}
	return result, nil
}

// ── 内部辅助 ──

// notifyAssigned 向已发布单元中新获指派的带教员发站内通知
func (s *assignmentService) notifyAssigned(ctx context.Context, session *model.Session, unit *model.Unit, facilitatorID string) {
	facilitator, err := s.repo.User.GetByID(ctx, facilitatorID)
	if err != nil {
		return
	}
	msg := fmt.Sprintf("你在 %s 有新的课节指派: %s %s-%s",
		unit.UnitCode, session.Date.Format("2006-01-02"), session.StartTime, session.EndTime)
	_ = s.notifier.Notify(ctx, facilitator, model.NotificationTypeGeneral, "新的课节指派", msg)
}

// toAssignmentResponse 转换指派为响应
func toAssignmentResponse(a *model.Assignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:            a.AssignmentID,
		SessionID:     a.SessionID,
		FacilitatorID: a.FacilitatorID,
		IsConfirmed:   a.IsConfirmed,
		CreatedAt:     a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if a.Facilitator != nil {
		resp.Facilitator = &dto.UserBrief{
			ID:        a.Facilitator.UserID,
			Email:     a.Facilitator.Email,
			FirstName: a.Facilitator.FirstName,
			LastName:  a.Facilitator.LastName,
		}
	}
	return resp
}
