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

// ── 冲突原因码 ──

const (
	ConflictReasonUnavailable       = "unavailable"         // 与不可用时间重叠
	ConflictReasonAssignmentOverlap = "assignment_overlap"  // 与已有指派重叠
	ConflictReasonSkillNoInterest   = "skill_no_interest"   // 明确声明无意愿
	ConflictReasonSkillMissing      = "skill_missing"       // 未声明技能等级
	ConflictReasonNotUnitMember     = "not_unit_member"     // 不是单元成员
	ConflictReasonDuplicate         = "duplicate"           // 重复指派
)

// Finding 单条冲突明细
// Blocking=true 为硬冲突，指派必须拒绝；false 为软冲突，可由协调员确认后覆盖
type Finding struct {
	Reason   string
	Detail   string
	Blocking bool
}

// ConflictError 指派被冲突拦截时返回，携带全部冲突明细
type ConflictError struct {
	Findings []Finding
}

func (e *ConflictError) Error() string {
	if len(e.Findings) == 1 {
		return fmt.Sprintf("存在排班冲突: %s", e.Findings[0].Detail)
	}
	return fmt.Sprintf("存在 %d 项排班冲突", len(e.Findings))
}

// HasBlocking 是否含硬冲突
func (e *ConflictError) HasBlocking() bool {
	for _, f := range e.Findings {
		if f.Blocking {
			return true
		}
	}
	return false
}

// FindingsToDTO 冲突明细转响应结构
func FindingsToDTO(findings []Finding) []dto.ConflictFindingResponse {
	out := make([]dto.ConflictFindingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, dto.ConflictFindingResponse{
			Reason:   f.Reason,
			Detail:   f.Detail,
			Blocking: f.Blocking,
		})
	}
	return out
}

// ConflictService 冲突检测业务接口
//
// 检测范围是全局的：不可用时间与既有指派均跨单元扫描，
// 发布传播产生的自动条目天然参与检测，实现跨单元互斥。
type ConflictService interface {
	// CheckAvailability 检测某带教员在给定日期时段是否可用
	// excludeSessionID 非空时忽略该课节自身的指派与自动条目（换班自检时使用）
	CheckAvailability(ctx context.Context, facilitatorID string, date time.Time, startTime, endTime, excludeSessionID string) ([]Finding, error)
	// CheckAssignment 检测一次完整指派：成员资格、重复、技能、时间可用性
	CheckAssignment(ctx context.Context, session *model.Session, unitID, facilitatorID string) ([]Finding, error)
}

type conflictService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// CheckAvailability — 时间维度检测
// ════════════════════════════════════════════════════════════

func (s *conflictService) CheckAvailability(ctx context.Context, facilitatorID string, date time.Time, startTime, endTime, excludeSessionID string) ([]Finding, error) {
	var findings []Finding

	// 1. 不可用时间：同日全部条目（含其他单元传播来的自动条目）
	entries, err := s.repo.Unavailability.ListByUserOnDate(ctx, facilitatorID, date)
	if err != nil {
		s.logger.Error("查询不可用时间失败", zap.Error(err))
		return nil, err
	}
	for i := range entries {
		e := &entries[i]
		// 换班自检：来源课节即本课节的自动条目不算冲突
		if excludeSessionID != "" && e.SourceSessionID != nil && *e.SourceSessionID == excludeSessionID {
			continue
		}
		if e.CoversTimeRange(startTime, endTime) {
			detail := "该时段已标记为不可用"
			if e.IsAutoGenerated() {
				detail = "该时段已被其他单元的已发布排班占用"
			} else if e.Reason != "" {
				detail = fmt.Sprintf("不可用时间: %s", e.Reason)
			}
			findings = append(findings, Finding{
				Reason:   ConflictReasonUnavailable,
				Detail:   detail,
				Blocking: true,
			})
		}
	}

	// 2. 指派重叠：同日全部指派，跨单元
	assignments, err := s.repo.Assignment.ListByFacilitatorOnDate(ctx, facilitatorID, date)
	if err != nil {
		s.logger.Error("查询同日指派失败", zap.Error(err))
		return nil, err
	}
	for i := range assignments {
		a := &assignments[i]
		if a.Session == nil {
			continue
		}
		if excludeSessionID != "" && a.SessionID == excludeSessionID {
			continue
		}
		if model.TimeRangesOverlap(a.Session.StartTime, a.Session.EndTime, startTime, endTime) {
			detail := fmt.Sprintf("与既有课节指派重叠 (%s-%s)", a.Session.StartTime, a.Session.EndTime)
			if a.Session.Module != nil {
				detail = fmt.Sprintf("与课节指派重叠: %s (%s-%s)",
					a.Session.Module.ModuleName, a.Session.StartTime, a.Session.EndTime)
			}
			findings = append(findings, Finding{
				Reason:   ConflictReasonAssignmentOverlap,
				Detail:   detail,
				Blocking: true,
			})
		}
	}

	return findings, nil
}

// ════════════════════════════════════════════════════════════
// CheckAssignment — 完整指派检测
// ════════════════════════════════════════════════════════════

func (s *conflictService) CheckAssignment(ctx context.Context, session *model.Session, unitID, facilitatorID string) ([]Finding, error) {
	var findings []Finding

	// 1. 成员资格
	isMember, err := s.repo.Unit.IsFacilitator(ctx, unitID, facilitatorID)
	if err != nil {
		s.logger.Error("查询单元成员资格失败", zap.Error(err))
		return nil, err
	}
	if !isMember {
		findings = append(findings, Finding{
			Reason:   ConflictReasonNotUnitMember,
			Detail:   "该带教员不是此单元的成员",
			Blocking: true,
		})
	}

	// 2. 重复指派
	existing, err := s.repo.Assignment.GetBySessionAndFacilitator(ctx, session.SessionID, facilitatorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询既有指派失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		findings = append(findings, Finding{
			Reason:   ConflictReasonDuplicate,
			Detail:   "该带教员已被指派到此课节",
			Blocking: true,
		})
	}

	// 3. 技能等级
	skill, err := s.repo.FacilitatorSkill.GetByFacilitatorAndModule(ctx, facilitatorID, session.ModuleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询技能声明失败", zap.Error(err))
		return nil, err
	}
	switch {
	case skill != nil && skill.SkillLevel == model.SkillLevelNoInterest:
		findings = append(findings, Finding{
			Reason:   ConflictReasonSkillNoInterest,
			Detail:   "该带教员已声明对此模块无意愿",
			Blocking: true,
		})
	case skill == nil:
		findings = append(findings, Finding{
			Reason:   ConflictReasonSkillMissing,
			Detail:   "该带教员未声明此模块的技能等级",
			Blocking: s.cfg.Scheduling.StrictSkillCheck,
		})
	}

	// 4. 时间可用性
	timeFindings, err := s.CheckAvailability(ctx, facilitatorID, session.Date, session.StartTime, session.EndTime, "")
	if err != nil {
		return nil, err
	}
	findings = append(findings, timeFindings...)

	return findings, nil
}
