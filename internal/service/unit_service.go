package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 单元模块业务错误 ──

var (
	ErrUnitNotFound              = errors.New("单元不存在")
	ErrUnitAlreadyExists         = errors.New("同学期下该单元代码已存在")
	ErrUserNotFound              = errors.New("用户不存在")
	ErrNotFacilitatorRole        = errors.New("只能添加带教员角色的用户")
	ErrAlreadyMember             = errors.New("该用户已是此单元成员")
	ErrFacilitatorHasAssignments = errors.New("该带教员在已发布排班中仍有课节指派，请先改派")
	ErrSessionOutsideUnitDates   = errors.New("课节日期超出单元日期范围")
)

// UnitService 单元与课节结构业务接口
type UnitService interface {
	CreateUnit(ctx context.Context, req *dto.CreateUnitRequest, callerID string) (*dto.UnitResponse, error)
	GetUnit(ctx context.Context, unitID string) (*dto.UnitDetailResponse, error)
	ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, int64, error)
	UpdateUnit(ctx context.Context, unitID string, req *dto.UpdateUnitRequest, callerID string) (*dto.UnitResponse, error)

	AddFacilitator(ctx context.Context, unitID string, req *dto.AddFacilitatorRequest, callerID string) error
	// RemoveFacilitator 移除成员；已发布排班中仍有指派时拒绝，
	// 草稿状态下级联清理其在本单元的指派
	RemoveFacilitator(ctx context.Context, unitID, userID, callerID string) error

	CreateModule(ctx context.Context, unitID string, req *dto.CreateModuleRequest, callerID string) (*dto.ModuleResponse, error)
	CreateSession(ctx context.Context, unitID string, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	UpdateSession(ctx context.Context, sessionID string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error)
	// DeleteSession 删除课节并回收其传播条目；所属模块被删空时一并清理
	DeleteSession(ctx context.Context, sessionID, callerID string) error

	// GetSessionCandidates 课节候选带教员及其技能与冲突状态
	GetSessionCandidates(ctx context.Context, sessionID string) ([]dto.SessionCandidateResponse, error)
}

type unitService struct {
	repo     *repository.Repository
	conflict ConflictService
	logger   *zap.Logger
}

// NewUnitService 创建 UnitService 实例
func NewUnitService(repo *repository.Repository, conflict ConflictService, logger *zap.Logger) UnitService {
	return &unitService{repo: repo, conflict: conflict, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 单元 CRUD
// ════════════════════════════════════════════════════════════

func (s *unitService) CreateUnit(ctx context.Context, req *dto.CreateUnitRequest, callerID string) (*dto.UnitResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	existing, err := s.repo.Unit.GetByCode(ctx, req.UnitCode, req.Year, req.Semester)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询单元失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrUnitAlreadyExists
	}

	unit := &model.Unit{
		UnitCode:       req.UnitCode,
		UnitName:       req.UnitName,
		Year:           req.Year,
		Semester:       req.Semester,
		StartDate:      startDate,
		EndDate:        endDate,
		ScheduleStatus: model.ScheduleStatusDraft,
	}
	unit.CreatedBy = &callerID
	unit.UpdatedBy = &callerID

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		if err := tx.Unit.Create(ctx, unit); err != nil {
			return err
		}
		// 创建者自动成为协调员
		return tx.Unit.AddCoordinator(ctx, unit.UnitID, callerID)
	})
	if err != nil {
		s.logger.Error("创建单元失败", zap.Error(err))
		return nil, err
	}

	resp := toUnitResponse(unit)
	return &resp, nil
}

func (s *unitService) GetUnit(ctx context.Context, unitID string) (*dto.UnitDetailResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("查询单元失败", zap.Error(err))
		return nil, err
	}

	modules, err := s.repo.Module.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	resp := &dto.UnitDetailResponse{
		UnitResponse: toUnitResponse(unit),
		Modules:      make([]dto.ModuleResponse, 0, len(modules)),
	}

	for i := range modules {
		mr := toModuleResponse(&modules[i])
		sessions, err := s.repo.Session.ListByModule(ctx, modules[i].ModuleID)
		if err != nil {
			return nil, err
		}
		mr.Sessions = make([]dto.SessionResponse, 0, len(sessions))
		for j := range sessions {
			mr.Sessions = append(mr.Sessions, toSessionResponse(&sessions[j]))
		}
		resp.Modules = append(resp.Modules, mr)
	}

	facilitators, err := s.repo.Unit.ListFacilitators(ctx, unitID)
	if err != nil {
		return nil, err
	}
	resp.Facilitators = make([]dto.UserBrief, 0, len(facilitators))
	for i := range facilitators {
		if u := facilitators[i].User; u != nil {
			resp.Facilitators = append(resp.Facilitators, dto.UserBrief{
				ID: u.UserID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
			})
		}
	}

	coordinators, err := s.repo.Unit.ListCoordinators(ctx, unitID)
	if err != nil {
		return nil, err
	}
	resp.Coordinators = make([]dto.UserBrief, 0, len(coordinators))
	for i := range coordinators {
		if u := coordinators[i].User; u != nil {
			resp.Coordinators = append(resp.Coordinators, dto.UserBrief{
				ID: u.UserID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
			})
		}
	}

	return resp, nil
}

func (s *unitService) ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, int64, error) {
	units, total, err := s.repo.Unit.List(ctx, req.Year, req.Semester, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询单元列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		result = append(result, toUnitResponse(&units[i]))
	}
	return result, total, nil
}

func (s *unitService) UpdateUnit(ctx context.Context, unitID string, req *dto.UpdateUnitRequest, callerID string) (*dto.UnitResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	if req.UnitName != nil {
		unit.UnitName = *req.UnitName
	}
	if req.StartDate != nil {
		d, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		unit.StartDate = d
	}
	if req.EndDate != nil {
		d, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		unit.EndDate = d
	}
	if unit.EndDate.Before(unit.StartDate) {
		return nil, ErrInvalidDateRange
	}
	unit.UpdatedBy = &callerID
	unit.Version = req.Version

	if err := s.repo.Unit.Update(ctx, unit); err != nil {
		s.logger.Error("更新单元失败", zap.Error(err))
		return nil, err
	}

	resp := toUnitResponse(unit)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 成员管理
// ════════════════════════════════════════════════════════════

func (s *unitService) AddFacilitator(ctx context.Context, unitID string, req *dto.AddFacilitatorRequest, callerID string) error {
	if _, err := s.repo.Unit.GetByID(ctx, unitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnitNotFound
		}
		return err
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role != model.RoleFacilitator {
		return ErrNotFacilitatorRole
	}

	isMember, err := s.repo.Unit.IsFacilitator(ctx, unitID, req.UserID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}

	if err := s.repo.Unit.AddFacilitator(ctx, unitID, req.UserID); err != nil {
		s.logger.Error("添加单元成员失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *unitService) RemoveFacilitator(ctx context.Context, unitID, userID, callerID string) error {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnitNotFound
		}
		return err
	}

	assignments, err := s.repo.Assignment.ListByUnit(ctx, unitID)
	if err != nil {
		return err
	}
	var owned []model.Assignment
	for i := range assignments {
		if assignments[i].FacilitatorID == userID {
			owned = append(owned, assignments[i])
		}
	}

	if unit.ScheduleStatus == model.ScheduleStatusPublished && len(owned) > 0 {
		return ErrFacilitatorHasAssignments
	}

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		// 草稿状态：级联清理其指派
		for i := range owned {
			if err := tx.Assignment.Delete(ctx, owned[i].AssignmentID); err != nil {
				return err
			}
			if _, err := tx.Unavailability.DeleteBySourceSessionAndUser(ctx, owned[i].SessionID, userID); err != nil {
				return err
			}
		}
		return tx.Unit.RemoveFacilitator(ctx, unitID, userID)
	})
	if err != nil {
		s.logger.Error("移除单元成员失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 模块与课节
// ════════════════════════════════════════════════════════════

func (s *unitService) CreateModule(ctx context.Context, unitID string, req *dto.CreateModuleRequest, callerID string) (*dto.ModuleResponse, error) {
	if _, err := s.repo.Unit.GetByID(ctx, unitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	m := &model.Module{
		UnitID:     unitID,
		ModuleName: req.ModuleName,
	}
	if req.ModuleType != "" {
		m.ModuleType = req.ModuleType
	}
	m.CreatedBy = &callerID
	m.UpdatedBy = &callerID

	if err := s.repo.Module.Create(ctx, m); err != nil {
		s.logger.Error("创建模块失败", zap.Error(err))
		return nil, err
	}

	resp := toModuleResponse(m)
	return &resp, nil
}

func (s *unitService) CreateSession(ctx context.Context, unitID string, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	m, err := s.repo.Module.GetByID(ctx, req.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	if m.UnitID != unitID {
		return nil, ErrModuleNotFound
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if !unit.ContainsDate(date) {
		return nil, ErrSessionOutsideUnitDates
	}
	if req.EndTime <= req.StartTime {
		return nil, ErrInvalidTimeRange
	}

	session := &model.Session{
		ModuleID:  req.ModuleID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Status:    model.SessionStatusUnassigned,
	}
	if req.SessionType != "" {
		session.SessionType = req.SessionType
	}
	session.CreatedBy = &callerID
	session.UpdatedBy = &callerID

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建课节失败", zap.Error(err))
		return nil, err
	}

	resp := toSessionResponse(session)
	return &resp, nil
}

func (s *unitService) UpdateSession(ctx context.Context, sessionID string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Module == nil || session.Module.Unit == nil {
		return nil, ErrSessionNotFound
	}
	unit := session.Module.Unit

	if req.Date != nil {
		d, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		if !unit.ContainsDate(d) {
			return nil, ErrSessionOutsideUnitDates
		}
		session.Date = d
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		session.EndTime = *req.EndTime
	}
	if session.EndTime <= session.StartTime {
		return nil, ErrInvalidTimeRange
	}
	if req.Location != nil {
		session.Location = *req.Location
	}
	session.UpdatedBy = &callerID
	session.Version = req.Version

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		if err := tx.Session.Update(ctx, session); err != nil {
			return err
		}
		// 已发布单元的时间变更需重建传播条目
		if unit.ScheduleStatus == model.ScheduleStatusPublished {
			if _, err := tx.Unavailability.DeleteBySourceSessions(ctx, []string{session.SessionID}); err != nil {
				return err
			}
			for i := range session.Assignments {
				if _, err := createAutoBlocks(ctx, tx, session, session.Assignments[i].FacilitatorID, unit.UnitID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("更新课节失败", zap.Error(err))
		return nil, err
	}

	resp := toSessionResponse(session)
	return &resp, nil
}

func (s *unitService) DeleteSession(ctx context.Context, sessionID, callerID string) error {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	err = s.repo.Tx(ctx, func(tx *repository.Repository) error {
		for i := range session.Assignments {
			if err := tx.Assignment.Delete(ctx, session.Assignments[i].AssignmentID); err != nil {
				return err
			}
		}
		if _, err := tx.Unavailability.DeleteBySourceSessions(ctx, []string{sessionID}); err != nil {
			return err
		}
		if err := tx.Session.Delete(ctx, sessionID); err != nil {
			return err
		}
		// 模块被删空时一并清理
		remaining, err := tx.Session.CountByModule(ctx, session.ModuleID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return tx.Module.Delete(ctx, session.ModuleID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("删除课节失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// GetSessionCandidates — 候选带教员
// ════════════════════════════════════════════════════════════

func (s *unitService) GetSessionCandidates(ctx context.Context, sessionID string) ([]dto.SessionCandidateResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Module == nil {
		return nil, ErrSessionNotFound
	}
	unitID := session.Module.UnitID

	members, err := s.repo.Unit.ListFacilitators(ctx, unitID)
	if err != nil {
		return nil, err
	}

	skills, err := s.repo.FacilitatorSkill.ListByModule(ctx, session.ModuleID)
	if err != nil {
		return nil, err
	}
	skillByUser := make(map[string]string, len(skills))
	for i := range skills {
		skillByUser[skills[i].FacilitatorID] = skills[i].SkillLevel
	}

	result := make([]dto.SessionCandidateResponse, 0, len(members))
	for i := range members {
		u := members[i].User
		if u == nil {
			continue
		}

		level, ok := skillByUser[u.UserID]
		if !ok {
			level = model.SkillLevelNoInterest
		}

		findings, err := s.conflict.CheckAvailability(ctx, u.UserID,
			session.Date, session.StartTime, session.EndTime, session.SessionID)
		if err != nil {
			return nil, err
		}
		if level == model.SkillLevelNoInterest {
			findings = append(findings, Finding{
				Reason:   ConflictReasonSkillNoInterest,
				Detail:   "对此模块无意愿",
				Blocking: true,
			})
		}

		conflicts := make([]string, 0, len(findings))
		for _, f := range findings {
			conflicts = append(conflicts, f.Detail)
		}

		result = append(result, dto.SessionCandidateResponse{
			UserID:     u.UserID,
			Name:       u.FullName(),
			Email:      u.Email,
			SkillLevel: level,
			Available:  !hasBlockingFinding(findings),
			Conflicts:  conflicts,
		})
	}

	return result, nil
}

// ── 响应转换 ──

// toUnitResponse 转换单元为响应
func toUnitResponse(unit *model.Unit) dto.UnitResponse {
	resp := dto.UnitResponse{
		ID:             unit.UnitID,
		UnitCode:       unit.UnitCode,
		UnitName:       unit.UnitName,
		Year:           unit.Year,
		Semester:       unit.Semester,
		StartDate:      unit.StartDate.Format("2006-01-02"),
		EndDate:        unit.EndDate.Format("2006-01-02"),
		ScheduleStatus: unit.ScheduleStatus,
		Version:        unit.Version,
		CreatedAt:      unit.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      unit.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if unit.PublishedAt != nil {
		t := unit.PublishedAt.Format("2006-01-02T15:04:05Z")
		resp.PublishedAt = &t
	}
	if unit.UnpublishedAt != nil {
		t := unit.UnpublishedAt.Format("2006-01-02T15:04:05Z")
		resp.UnpublishedAt = &t
	}
	return resp
}

// toModuleResponse 转换模块为响应
func toModuleResponse(m *model.Module) dto.ModuleResponse {
	return dto.ModuleResponse{
		ID:         m.ModuleID,
		UnitID:     m.UnitID,
		ModuleName: m.ModuleName,
		ModuleType: m.ModuleType,
	}
}

// toSessionResponse 转换课节为响应
func toSessionResponse(session *model.Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:          session.SessionID,
		ModuleID:    session.ModuleID,
		Date:        session.Date.Format("2006-01-02"),
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
		Location:    session.Location,
		SessionType: session.SessionType,
		Status:      session.Status,
		Version:     session.Version,
	}
	resp.Assignments = make([]dto.AssignmentResponse, 0, len(session.Assignments))
	for i := range session.Assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(&session.Assignments[i]))
	}
	return resp
}
