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

// ── 换班模块业务错误 ──

var (
	ErrSwapNotFound        = errors.New("换班申请不存在")
	ErrSwapNotOwner        = errors.New("只能为自己的指派发起换班")
	ErrSwapSessionPast     = errors.New("课节已结束，不可换班")
	ErrSwapNotDiscussed    = errors.New("发起换班前请先与对方沟通并确认")
	ErrSwapTargetNotMember = errors.New("对方不是此单元的成员")
	ErrSwapNoop            = errors.New("换班双方相同，无需换班")
	ErrSwapTargetAssigned  = errors.New("对方已被指派到此课节")
	ErrSwapNotTarget       = errors.New("只有被指向的带教员可以响应此申请")
	ErrSwapNotPending      = errors.New("换班申请已处理")
)

// SwapService 换班业务接口
//
// 校验顺序固定：归属 → 未过期 → 已沟通 → 对方成员资格 →
// 对方技能 → 对方时间可用性（排除本课节自身）→ 非空操作。
// 默认即时批准并执行改派；feature.swap_approval_enabled 开启后
// 先进入 facilitator_pending，由对方确认后再执行。
type SwapService interface {
	RequestSwap(ctx context.Context, req *dto.CreateSwapRequest, callerID string) (*dto.SwapRequestResponse, error)
	RespondSwap(ctx context.Context, swapID string, req *dto.RespondSwapRequest, callerID string) (*dto.SwapRequestResponse, error)
	GetSwap(ctx context.Context, swapID, callerID string) (*dto.SwapRequestResponse, error)
	ListMySwaps(ctx context.Context, userID string, req *dto.SwapListRequest) ([]dto.SwapRequestResponse, int64, error)
}

type swapService struct {
	cfg      *config.Config
	repo     *repository.Repository
	conflict ConflictService
	notifier Notifier
	logger   *zap.Logger
}

// NewSwapService 创建 SwapService 实例
func NewSwapService(cfg *config.Config, repo *repository.Repository, conflict ConflictService, notifier Notifier, logger *zap.Logger) SwapService {
	return &swapService{cfg: cfg, repo: repo, conflict: conflict, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// RequestSwap — 发起换班
// ════════════════════════════════════════════════════════════

func (s *swapService) RequestSwap(ctx context.Context, req *dto.CreateSwapRequest, callerID string) (*dto.SwapRequestResponse, error) {
	// 1. 归属校验
	assignment, err := s.repo.Assignment.GetByID(ctx, req.RequesterAssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.Error(err))
		return nil, err
	}
	if assignment.FacilitatorID != callerID {
		return nil, ErrSwapNotOwner
	}
	session := assignment.Session
	if session == nil || session.Module == nil {
		return nil, ErrSessionNotFound
	}
	unitID := session.Module.UnitID

	// 2. 课节未过期
	today := time.Now().Truncate(24 * time.Hour)
	if session.Date.Truncate(24 * time.Hour).Before(today) {
		return nil, ErrSwapSessionPast
	}

	// 3. 已沟通确认
	if !req.Discussed {
		return nil, ErrSwapNotDiscussed
	}

	// 4. 对方成员资格
	isMember, err := s.repo.Unit.IsFacilitator(ctx, unitID, req.TargetID)
	if err != nil {
		s.logger.Error("查询单元成员资格失败", zap.Error(err))
		return nil, err
	}
	if !isMember {
		return nil, ErrSwapTargetNotMember
	}

	// 5. 对方技能：明确无意愿的模块直接拒绝
	skill, err := s.repo.FacilitatorSkill.GetByFacilitatorAndModule(ctx, req.TargetID, session.ModuleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询技能声明失败", zap.Error(err))
		return nil, err
	}
	if skill != nil && skill.SkillLevel == model.SkillLevelNoInterest {
		return nil, &ConflictError{Findings: []Finding{{
			Reason:   ConflictReasonSkillNoInterest,
			Detail:   "对方已声明对此模块无意愿",
			Blocking: true,
		}}}
	}
	if skill == nil && s.cfg.Scheduling.StrictSkillCheck {
		return nil, &ConflictError{Findings: []Finding{{
			Reason:   ConflictReasonSkillMissing,
			Detail:   "对方未声明此模块的技能等级",
			Blocking: true,
		}}}
	}

	// 6. 对方时间可用性（排除本课节自身的指派与自动条目）
	findings, err := s.conflict.CheckAvailability(ctx, req.TargetID,
		session.Date, session.StartTime, session.EndTime, session.SessionID)
	if err != nil {
		return nil, err
	}
	// 双向换班还需反向检查发起方对目标课节的可用性
	var targetAssignment *model.Assignment
	if req.TargetAssignmentID != nil {
		targetAssignment, err = s.repo.Assignment.GetByID(ctx, *req.TargetAssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}
		if targetAssignment.FacilitatorID != req.TargetID {
			return nil, ErrSwapNotOwner
		}
		ts := targetAssignment.Session
		if ts == nil {
			return nil, ErrSessionNotFound
		}
		reverse, err := s.conflict.CheckAvailability(ctx, callerID,
			ts.Date, ts.StartTime, ts.EndTime, ts.SessionID)
		if err != nil {
			return nil, err
		}
		findings = append(findings, reverse...)
	}
	if hasBlockingFinding(findings) {
		return nil, &ConflictError{Findings: findings}
	}

	// 7. 非空操作
	if req.TargetID == callerID {
		return nil, ErrSwapNoop
	}
	if req.TargetAssignmentID != nil && *req.TargetAssignmentID == req.RequesterAssignmentID {
		return nil, ErrSwapNoop
	}
	// 多人课节：对方已是本课节的指派人之一时改派无意义，
	// 且 exclude 规则会让可用性检测看不到这条既有指派
	targetExisting, err := s.repo.Assignment.GetBySessionAndFacilitator(ctx, session.SessionID, req.TargetID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询对方既有指派失败", zap.Error(err))
		return nil, err
	}
	if targetExisting != nil {
		return nil, ErrSwapTargetAssigned
	}

	swap := &model.SwapRequest{
		RequesterID:           callerID,
		TargetID:              req.TargetID,
		RequesterAssignmentID: req.RequesterAssignmentID,
		TargetAssignmentID:    req.TargetAssignmentID,
		Reason:                req.Reason,
	}
	swap.CreatedBy = &callerID
	swap.UpdatedBy = &callerID

	if s.cfg.Feature.SwapApprovalEnabled {
		// 审批模式：等待对方确认
		swap.Status = model.SwapStatusFacilitatorPending
		if err := s.repo.SwapRequest.Create(ctx, swap); err != nil {
			s.logger.Error("创建换班申请失败", zap.Error(err))
			return nil, err
		}
		if target, terr := s.repo.User.GetByID(ctx, req.TargetID); terr == nil {
			requesterName := callerID
			if requester, rerr := s.repo.User.GetByID(ctx, callerID); rerr == nil {
				requesterName = requester.FullName()
			}
			msg := fmt.Sprintf("%s 向你发起了换班申请: %s %s-%s，请及时响应。",
				requesterName, session.Date.Format("2006-01-02"), session.StartTime, session.EndTime)
			_ = s.notifier.Notify(ctx, target, model.NotificationTypeSwapRequested, "新的换班申请", msg)
		}
	} else {
		// 即时模式：校验通过立即批准并执行改派
		now := time.Now()
		swap.Status = model.SwapStatusApproved
		swap.FacilitatorConfirmed = true
		swap.FacilitatorConfirmedAt = &now
		if err := s.executeSwap(ctx, swap, assignment, targetAssignment, callerID); err != nil {
			return nil, err
		}
		s.notifySwapExecuted(ctx, swap, session)
	}

	created, err := s.repo.SwapRequest.GetByID(ctx, swap.SwapRequestID)
	if err != nil {
		return nil, err
	}
	resp := toSwapResponse(created)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// RespondSwap — 响应换班（审批模式）
// ════════════════════════════════════════════════════════════

func (s *swapService) RespondSwap(ctx context.Context, swapID string, req *dto.RespondSwapRequest, callerID string) (*dto.SwapRequestResponse, error) {
	swap, err := s.repo.SwapRequest.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.Error(err))
		return nil, err
	}
	if swap.TargetID != callerID {
		return nil, ErrSwapNotTarget
	}
	if swap.Status != model.SwapStatusFacilitatorPending {
		return nil, ErrSwapNotPending
	}

	if !req.Accept {
		swap.Status = model.SwapStatusDeclined
		swap.RejectionReason = req.Reason
		swap.UpdatedBy = &callerID
		if err := s.repo.SwapRequest.Update(ctx, swap); err != nil {
			s.logger.Error("更新换班申请失败", zap.Error(err))
			return nil, err
		}
		if requester, rerr := s.repo.User.GetByID(ctx, swap.RequesterID); rerr == nil {
			_ = s.notifier.Notify(ctx, requester, model.NotificationTypeSwapDeclined,
				"换班申请被拒绝", "你的换班申请已被对方拒绝。")
		}
		resp := toSwapResponse(swap)
		return &resp, nil
	}

	assignment, err := s.repo.Assignment.GetByID(ctx, swap.RequesterAssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	session := assignment.Session
	if session == nil {
		return nil, ErrSessionNotFound
	}

	// 申请期间排班可能已变化，接受前重新检测可用性
	findings, err := s.conflict.CheckAvailability(ctx, swap.TargetID,
		session.Date, session.StartTime, session.EndTime, session.SessionID)
	if err != nil {
		return nil, err
	}
	if hasBlockingFinding(findings) {
		return nil, &ConflictError{Findings: findings}
	}
	targetExisting, err := s.repo.Assignment.GetBySessionAndFacilitator(ctx, session.SessionID, swap.TargetID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if targetExisting != nil {
		return nil, ErrSwapTargetAssigned
	}

	var targetAssignment *model.Assignment
	if swap.TargetAssignmentID != nil {
		targetAssignment, err = s.repo.Assignment.GetByID(ctx, *swap.TargetAssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}
	}

	now := time.Now()
	swap.Status = model.SwapStatusApproved
	swap.FacilitatorConfirmed = true
	swap.FacilitatorConfirmedAt = &now
	if err := s.executeSwap(ctx, swap, assignment, targetAssignment, callerID); err != nil {
		return nil, err
	}
	s.notifySwapExecuted(ctx, swap, session)

	updated, err := s.repo.SwapRequest.GetByID(ctx, swap.SwapRequestID)
	if err != nil {
		return nil, err
	}
	resp := toSwapResponse(updated)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// GetSwap / ListMySwaps — 查询
// ════════════════════════════════════════════════════════════

func (s *swapService) GetSwap(ctx context.Context, swapID, callerID string) (*dto.SwapRequestResponse, error) {
	swap, err := s.repo.SwapRequest.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		return nil, err
	}
	if swap.RequesterID != callerID && swap.TargetID != callerID {
		return nil, ErrSwapNotFound
	}
	resp := toSwapResponse(swap)
	return &resp, nil
}

func (s *swapService) ListMySwaps(ctx context.Context, userID string, req *dto.SwapListRequest) ([]dto.SwapRequestResponse, int64, error) {
	swaps, total, err := s.repo.SwapRequest.ListByUser(ctx, userID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询换班申请失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.SwapRequestResponse, 0, len(swaps))
	for i := range swaps {
		result = append(result, toSwapResponse(&swaps[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助
// ════════════════════════════════════════════════════════════

// executeSwap 在单事务内执行改派与自动条目定点修复
// 定点修复只动涉事课节的自动条目：删旧主、建新主，其余条目不触碰
func (s *swapService) executeSwap(ctx context.Context, swap *model.SwapRequest, assignment, targetAssignment *model.Assignment, callerID string) error {
	err := s.repo.Tx(ctx, func(tx *repository.Repository) error {
		if err := s.reassign(ctx, tx, assignment, swap.TargetID, callerID); err != nil {
			return err
		}
		if targetAssignment != nil {
			if err := s.reassign(ctx, tx, targetAssignment, swap.RequesterID, callerID); err != nil {
				return err
			}
		}

		if swap.SwapRequestID == "" {
			return tx.SwapRequest.Create(ctx, swap)
		}
		return tx.SwapRequest.Update(ctx, swap)
	})
	if err != nil {
		s.logger.Error("执行换班失败", zap.String("swap_id", swap.SwapRequestID), zap.Error(err))
		return err
	}
	return nil
}

// reassign 把指派移交给 newFacilitatorID，并修复发布传播的自动条目
func (s *swapService) reassign(ctx context.Context, tx *repository.Repository, assignment *model.Assignment, newFacilitatorID, callerID string) error {
	oldFacilitatorID := assignment.FacilitatorID
	session := assignment.Session
	if session == nil || session.Module == nil {
		return ErrSessionNotFound
	}

	assignment.FacilitatorID = newFacilitatorID
	assignment.UpdatedBy = &callerID
	if err := tx.Assignment.Update(ctx, assignment); err != nil {
		return err
	}

	unit, err := tx.Unit.GetByID(ctx, session.Module.UnitID)
	if err != nil {
		return err
	}
	if unit.ScheduleStatus != model.ScheduleStatusPublished {
		return nil
	}

	if _, err := tx.Unavailability.DeleteBySourceSessionAndUser(ctx, session.SessionID, oldFacilitatorID); err != nil {
		return err
	}
	_, err = createAutoBlocks(ctx, tx, session, newFacilitatorID, unit.UnitID)
	return err
}

func (s *swapService) notifySwapExecuted(ctx context.Context, swap *model.SwapRequest, session *model.Session) {
	msg := fmt.Sprintf("换班已生效: %s %s-%s 的课节指派已交换。",
		session.Date.Format("2006-01-02"), session.StartTime, session.EndTime)
	for _, id := range []string{swap.RequesterID, swap.TargetID} {
		if user, err := s.repo.User.GetByID(ctx, id); err == nil {
			_ = s.notifier.Notify(ctx, user, model.NotificationTypeSwapExecuted, "换班已生效", msg)
		}
	}
}

// hasBlockingFinding 是否包含硬冲突
func hasBlockingFinding(findings []Finding) bool {
	for _, f := range findings {
		if f.Blocking {
			return true
		}
	}
	return false
}

// toSwapResponse 转换换班申请为响应
func toSwapResponse(swap *model.SwapRequest) dto.SwapRequestResponse {
	resp := dto.SwapRequestResponse{
		ID:                    swap.SwapRequestID,
		RequesterID:           swap.RequesterID,
		TargetID:              swap.TargetID,
		RequesterAssignmentID: swap.RequesterAssignmentID,
		TargetAssignmentID:    swap.TargetAssignmentID,
		Reason:                swap.Reason,
		Status:                swap.Status,
		RejectionReason:       swap.RejectionReason,
		CreatedAt:             swap.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:             swap.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if swap.Requester != nil {
		resp.Requester = &dto.UserBrief{
			ID:        swap.Requester.UserID,
			Email:     swap.Requester.Email,
			FirstName: swap.Requester.FirstName,
			LastName:  swap.Requester.LastName,
		}
	}
	if swap.Target != nil {
		resp.Target = &dto.UserBrief{
			ID:        swap.Target.UserID,
			Email:     swap.Target.Email,
			FirstName: swap.Target.FirstName,
			LastName:  swap.Target.LastName,
		}
	}
	if swap.RequesterAssignment != nil && swap.RequesterAssignment.Session != nil {
		sr := toSessionResponse(swap.RequesterAssignment.Session)
		resp.RequesterSession = &sr
	}
	return resp
}
