package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
	pkgerrors "campus-roster/backend/pkg/errors"
	"campus-roster/backend/pkg/mailer"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	user.Version = 1
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── Mock UnitRepository ──

type mockUnitRepo struct {
	units        map[string]*model.Unit
	facilitators []model.UnitFacilitator
	coordinators []model.UnitCoordinator
	users        *mockUserRepo
	idCounter    int
}

func newMockUnitRepo() *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]*model.Unit)}
}

func (m *mockUnitRepo) Create(_ context.Context, unit *model.Unit) error {
	if unit.UnitID == "" {
		m.idCounter++
		unit.UnitID = fmt.Sprintf("unit-%d", m.idCounter)
	}
	unit.Version = 1
	cp := *unit
	m.units[unit.UnitID] = &cp
	return nil
}

func (m *mockUnitRepo) GetByID(_ context.Context, id string) (*model.Unit, error) {
	if u, ok := m.units[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) GetByCode(_ context.Context, unitCode string, year int, semester string) (*model.Unit, error) {
	for _, u := range m.units {
		if u.UnitCode == unitCode && u.Year == year && u.Semester == semester {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) List(_ context.Context, year int, semester string, offset, limit int) ([]model.Unit, int64, error) {
	var result []model.Unit
	for _, u := range m.units {
		if year > 0 && u.Year != year {
			continue
		}
		if semester != "" && u.Semester != semester {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUnitRepo) ListPublishedByFacilitator(_ context.Context, facilitatorID string) ([]model.Unit, error) {
	var result []model.Unit
	for _, f := range m.facilitators {
		if f.UserID != facilitatorID {
			continue
		}
		if u, ok := m.units[f.UnitID]; ok && u.ScheduleStatus == model.ScheduleStatusPublished {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUnitRepo) Update(_ context.Context, unit *model.Unit) error {
	cur, ok := m.units[unit.UnitID]
	if !ok || cur.Version != unit.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *unit
	cp.Version = unit.Version + 1
	m.units[unit.UnitID] = &cp
	unit.Version = cp.Version
	return nil
}

func (m *mockUnitRepo) Delete(_ context.Context, id string) error {
	delete(m.units, id)
	return nil
}

func (m *mockUnitRepo) AddFacilitator(_ context.Context, unitID, userID string) error {
	m.facilitators = append(m.facilitators, model.UnitFacilitator{
		UnitFacilitatorID: fmt.Sprintf("uf-%d", len(m.facilitators)+1),
		UnitID:            unitID,
		UserID:            userID,
	})
	return nil
}

func (m *mockUnitRepo) RemoveFacilitator(_ context.Context, unitID, userID string) error {
	var remaining []model.UnitFacilitator
	for _, f := range m.facilitators {
		if !(f.UnitID == unitID && f.UserID == userID) {
			remaining = append(remaining, f)
		}
	}
	m.facilitators = remaining
	return nil
}

func (m *mockUnitRepo) IsFacilitator(_ context.Context, unitID, userID string) (bool, error) {
	for _, f := range m.facilitators {
		if f.UnitID == unitID && f.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUnitRepo) ListFacilitators(_ context.Context, unitID string) ([]model.UnitFacilitator, error) {
	var result []model.UnitFacilitator
	for _, f := range m.facilitators {
		if f.UnitID != unitID {
			continue
		}
		if m.users != nil {
			if u, ok := m.users.users[f.UserID]; ok {
				f.User = u
			}
		}
		result = append(result, f)
	}
	return result, nil
}

func (m *mockUnitRepo) ListUnitIDsByFacilitator(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, f := range m.facilitators {
		if f.UserID == userID {
			ids = append(ids, f.UnitID)
		}
	}
	return ids, nil
}

func (m *mockUnitRepo) AddCoordinator(_ context.Context, unitID, userID string) error {
	m.coordinators = append(m.coordinators, model.UnitCoordinator{
		UnitCoordinatorID: fmt.Sprintf("uc-%d", len(m.coordinators)+1),
		UnitID:            unitID,
		UserID:            userID,
	})
	return nil
}

func (m *mockUnitRepo) IsCoordinator(_ context.Context, unitID, userID string) (bool, error) {
	for _, c := range m.coordinators {
		if c.UnitID == unitID && c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUnitRepo) ListCoordinators(_ context.Context, unitID string) ([]model.UnitCoordinator, error) {
	var result []model.UnitCoordinator
	for _, c := range m.coordinators {
		if c.UnitID != unitID {
			continue
		}
		if m.users != nil {
			if u, ok := m.users.users[c.UserID]; ok {
				c.User = u
			}
		}
		result = append(result, c)
	}
	return result, nil
}

// ── Mock ModuleRepository ──

type mockModuleRepo struct {
	modules   map[string]*model.Module
	units     *mockUnitRepo
	idCounter int
}

func newMockModuleRepo() *mockModuleRepo {
	return &mockModuleRepo{modules: make(map[string]*model.Module)}
}

func (m *mockModuleRepo) Create(_ context.Context, mod *model.Module) error {
	if mod.ModuleID == "" {
		m.idCounter++
		mod.ModuleID = fmt.Sprintf("mod-%d", m.idCounter)
	}
	mod.Version = 1
	cp := *mod
	m.modules[mod.ModuleID] = &cp
	return nil
}

func (m *mockModuleRepo) GetByID(_ context.Context, id string) (*model.Module, error) {
	mod, ok := m.modules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *mod
	if m.units != nil {
		if u, ok := m.units.units[cp.UnitID]; ok {
			ucp := *u
			cp.Unit = &ucp
		}
	}
	return &cp, nil
}

func (m *mockModuleRepo) ListByUnit(_ context.Context, unitID string) ([]model.Module, error) {
	var result []model.Module
	for _, mod := range m.modules {
		if mod.UnitID == unitID {
			result = append(result, *mod)
		}
	}
	return result, nil
}

func (m *mockModuleRepo) ListIDsByUnit(_ context.Context, unitID string) ([]string, error) {
	var ids []string
	for _, mod := range m.modules {
		if mod.UnitID == unitID {
			ids = append(ids, mod.ModuleID)
		}
	}
	return ids, nil
}

func (m *mockModuleRepo) Update(_ context.Context, mod *model.Module) error {
	if _, ok := m.modules[mod.ModuleID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *mod
	m.modules[mod.ModuleID] = &cp
	return nil
}

func (m *mockModuleRepo) Delete(_ context.Context, id string) error {
	delete(m.modules, id)
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions    map[string]*model.Session
	modules     *mockModuleRepo
	assignments *mockAssignmentRepo
	idCounter   int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

// withModule 装配 Module 与 Module.Unit 关联
func (m *mockSessionRepo) withModule(s *model.Session) {
	if m.modules == nil {
		return
	}
	mod, ok := m.modules.modules[s.ModuleID]
	if !ok {
		return
	}
	mcp := *mod
	if m.modules.units != nil {
		if u, ok := m.modules.units.units[mcp.UnitID]; ok {
			ucp := *u
			mcp.Unit = &ucp
		}
	}
	s.Module = &mcp
}

// withAssignments 装配 Assignments 关联（不再向下装配 Session，避免循环）
func (m *mockSessionRepo) withAssignments(s *model.Session) {
	if m.assignments == nil {
		return
	}
	s.Assignments = nil
	for _, a := range m.assignments.assignments {
		if a.SessionID == s.SessionID {
			if m.assignments.users != nil {
				if u, ok := m.assignments.users.users[a.FacilitatorID]; ok {
					a.Facilitator = u
				}
			}
			s.Assignments = append(s.Assignments, a)
		}
	}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	if session.SessionID == "" {
		m.idCounter++
		session.SessionID = fmt.Sprintf("sess-%d", m.idCounter)
	}
	session.Version = 1
	cp := *session
	cp.Module = nil
	cp.Assignments = nil
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	m.withModule(&cp)
	m.withAssignments(&cp)
	return &cp, nil
}

func (m *mockSessionRepo) ListByModule(_ context.Context, moduleID string) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if s.ModuleID == moduleID {
			cp := *s
			m.withAssignments(&cp)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByUnit(_ context.Context, unitID string) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if !m.inUnit(s, unitID) {
			continue
		}
		cp := *s
		m.withModule(&cp)
		m.withAssignments(&cp)
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockSessionRepo) ListIDsByUnit(_ context.Context, unitID string) ([]string, error) {
	var ids []string
	for _, s := range m.sessions {
		if m.inUnit(s, unitID) {
			ids = append(ids, s.SessionID)
		}
	}
	return ids, nil
}

func (m *mockSessionRepo) ListByUnitOnDate(_ context.Context, unitID string, date time.Time) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if m.inUnit(s, unitID) && model.SameDate(s.Date, date) {
			cp := *s
			m.withModule(&cp)
			m.withAssignments(&cp)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) CountByModule(_ context.Context, moduleID string) (int64, error) {
	var count int64
	for _, s := range m.sessions {
		if s.ModuleID == moduleID {
			count++
		}
	}
	return count, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.Session) error {
	cur, ok := m.sessions[session.SessionID]
	if !ok || cur.Version != session.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *session
	cp.Version = session.Version + 1
	cp.Module = nil
	cp.Assignments = nil
	m.sessions[session.SessionID] = &cp
	session.Version = cp.Version
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) inUnit(s *model.Session, unitID string) bool {
	if m.modules == nil {
		return false
	}
	mod, ok := m.modules.modules[s.ModuleID]
	return ok && mod.UnitID == unitID
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments []model.Assignment
	sessions    *mockSessionRepo
	users       *mockUserRepo
	idCounter   int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{}
}

// withRelations 装配 Session（含 Module/Unit）与 Facilitator 关联
func (m *mockAssignmentRepo) withRelations(a *model.Assignment) {
	if m.sessions != nil {
		if s, ok := m.sessions.sessions[a.SessionID]; ok {
			cp := *s
			m.sessions.withModule(&cp)
			a.Session = &cp
		}
	}
	if m.users != nil {
		if u, ok := m.users.users[a.FacilitatorID]; ok {
			a.Facilitator = u
		}
	}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if assignment.AssignmentID == "" {
		m.idCounter++
		assignment.AssignmentID = fmt.Sprintf("assign-%d", m.idCounter)
	}
	assignment.Version = 1
	assignment.CreatedAt = time.Now()
	cp := *assignment
	cp.Session = nil
	cp.Facilitator = nil
	m.assignments = append(m.assignments, cp)
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	for i := range m.assignments {
		if m.assignments[i].AssignmentID == id {
			cp := m.assignments[i]
			m.withRelations(&cp)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) GetBySessionAndFacilitator(_ context.Context, sessionID, facilitatorID string) (*model.Assignment, error) {
	for i := range m.assignments {
		if m.assignments[i].SessionID == sessionID && m.assignments[i].FacilitatorID == facilitatorID {
			cp := m.assignments[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListBySession(_ context.Context, sessionID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for i := range m.assignments {
		if m.assignments[i].SessionID == sessionID {
			cp := m.assignments[i]
			m.withRelations(&cp)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByFacilitator(_ context.Context, facilitatorID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for i := range m.assignments {
		if m.assignments[i].FacilitatorID == facilitatorID {
			cp := m.assignments[i]
			m.withRelations(&cp)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByFacilitatorOnDate(_ context.Context, facilitatorID string, date time.Time) ([]model.Assignment, error) {
	var result []model.Assignment
	for i := range m.assignments {
		a := m.assignments[i]
		if a.FacilitatorID != facilitatorID {
			continue
		}
		s, ok := m.sessions.sessions[a.SessionID]
		if !ok || !model.SameDate(s.Date, date) {
			continue
		}
		m.withRelations(&a)
		result = append(result, a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByUnit(_ context.Context, unitID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for i := range m.assignments {
		a := m.assignments[i]
		s, ok := m.sessions.sessions[a.SessionID]
		if !ok || !m.sessions.inUnit(s, unitID) {
			continue
		}
		m.withRelations(&a)
		result = append(result, a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.Assignment) error {
	for i := range m.assignments {
		if m.assignments[i].AssignmentID == assignment.AssignmentID {
			if m.assignments[i].Version != assignment.Version {
				return pkgerrors.ErrOptimisticLock
			}
			cp := *assignment
			cp.Version = assignment.Version + 1
			cp.Session = nil
			cp.Facilitator = nil
			m.assignments[i] = cp
			assignment.Version = cp.Version
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	for i := range m.assignments {
		if m.assignments[i].AssignmentID == id {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock FacilitatorSkillRepository ──

type mockFacilitatorSkillRepo struct {
	skills    []model.FacilitatorSkill
	modules   *mockModuleRepo
	idCounter int
}

func newMockFacilitatorSkillRepo() *mockFacilitatorSkillRepo {
	return &mockFacilitatorSkillRepo{}
}

func (m *mockFacilitatorSkillRepo) Upsert(_ context.Context, skill *model.FacilitatorSkill) error {
	for i := range m.skills {
		if m.skills[i].FacilitatorID == skill.FacilitatorID && m.skills[i].ModuleID == skill.ModuleID {
			m.skills[i].SkillLevel = skill.SkillLevel
			m.skills[i].ExperienceDescription = skill.ExperienceDescription
			skill.SkillID = m.skills[i].SkillID
			return nil
		}
	}
	m.idCounter++
	if skill.SkillID == "" {
		skill.SkillID = fmt.Sprintf("skill-%d", m.idCounter)
	}
	m.skills = append(m.skills, *skill)
	return nil
}

func (m *mockFacilitatorSkillRepo) GetByFacilitatorAndModule(_ context.Context, facilitatorID, moduleID string) (*model.FacilitatorSkill, error) {
	for i := range m.skills {
		if m.skills[i].FacilitatorID == facilitatorID && m.skills[i].ModuleID == moduleID {
			cp := m.skills[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacilitatorSkillRepo) ListByFacilitatorAndUnit(_ context.Context, facilitatorID, unitID string) ([]model.FacilitatorSkill, error) {
	var result []model.FacilitatorSkill
	for i := range m.skills {
		s := m.skills[i]
		if s.FacilitatorID != facilitatorID {
			continue
		}
		if mod, ok := m.modules.modules[s.ModuleID]; ok && mod.UnitID == unitID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockFacilitatorSkillRepo) ListByModule(_ context.Context, moduleID string) ([]model.FacilitatorSkill, error) {
	var result []model.FacilitatorSkill
	for i := range m.skills {
		if m.skills[i].ModuleID == moduleID {
			result = append(result, m.skills[i])
		}
	}
	return result, nil
}

func (m *mockFacilitatorSkillRepo) DeleteByFacilitatorAndUnit(_ context.Context, facilitatorID, unitID string) error {
	var remaining []model.FacilitatorSkill
	for i := range m.skills {
		s := m.skills[i]
		mod, ok := m.modules.modules[s.ModuleID]
		if s.FacilitatorID == facilitatorID && ok && mod.UnitID == unitID {
			continue
		}
		remaining = append(remaining, s)
	}
	m.skills = remaining
	return nil
}

// ── Mock UnavailabilityRepository ──

type mockUnavailabilityRepo struct {
	entries   []model.Unavailability
	idCounter int
}

func newMockUnavailabilityRepo() *mockUnavailabilityRepo {
	return &mockUnavailabilityRepo{}
}

func (m *mockUnavailabilityRepo) Create(_ context.Context, entry *model.Unavailability) error {
	m.idCounter++
	if entry.UnavailabilityID == "" {
		entry.UnavailabilityID = fmt.Sprintf("ua-%d", m.idCounter)
	}
	entry.Version = 1
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockUnavailabilityRepo) BatchCreate(ctx context.Context, entries []model.Unavailability) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockUnavailabilityRepo) GetByID(_ context.Context, id string) (*model.Unavailability, error) {
	for i := range m.entries {
		if m.entries[i].UnavailabilityID == id {
			cp := m.entries[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnavailabilityRepo) ListByUser(_ context.Context, userID string, from, to *time.Time, offset, limit int) ([]model.Unavailability, int64, error) {
	var result []model.Unavailability
	for i := range m.entries {
		e := m.entries[i]
		if e.UserID != userID {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		result = append(result, e)
	}
	return result, int64(len(result)), nil
}

func (m *mockUnavailabilityRepo) ListByUserOnDate(_ context.Context, userID string, date time.Time) ([]model.Unavailability, error) {
	var result []model.Unavailability
	for i := range m.entries {
		e := m.entries[i]
		if e.UserID == userID && model.SameDate(e.Date, date) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockUnavailabilityRepo) ListBySourceSession(_ context.Context, sessionID string) ([]model.Unavailability, error) {
	var result []model.Unavailability
	for i := range m.entries {
		e := m.entries[i]
		if e.SourceSessionID != nil && *e.SourceSessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockUnavailabilityRepo) ExistsAuto(_ context.Context, userID, unitID string, date time.Time, startTime, endTime, sourceSessionID string) (bool, error) {
	for i := range m.entries {
		e := m.entries[i]
		if e.UserID != userID || e.UnitID == nil || *e.UnitID != unitID {
			continue
		}
		if !model.SameDate(e.Date, date) {
			continue
		}
		if e.SourceSessionID == nil || *e.SourceSessionID != sourceSessionID {
			continue
		}
		if e.StartTime == nil || e.EndTime == nil || *e.StartTime != startTime || *e.EndTime != endTime {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *mockUnavailabilityRepo) Update(_ context.Context, entry *model.Unavailability) error {
	for i := range m.entries {
		if m.entries[i].UnavailabilityID == entry.UnavailabilityID {
			m.entries[i] = *entry
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUnavailabilityRepo) Delete(_ context.Context, id string) error {
	for i := range m.entries {
		if m.entries[i].UnavailabilityID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUnavailabilityRepo) DeleteBySourceSessions(_ context.Context, sessionIDs []string) (int64, error) {
	ids := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		ids[id] = true
	}
	var remaining []model.Unavailability
	var deleted int64
	for i := range m.entries {
		e := m.entries[i]
		if e.SourceSessionID != nil && ids[*e.SourceSessionID] {
			deleted++
			continue
		}
		remaining = append(remaining, e)
	}
	m.entries = remaining
	return deleted, nil
}

func (m *mockUnavailabilityRepo) DeleteBySourceSessionAndUser(_ context.Context, sessionID, userID string) (int64, error) {
	var remaining []model.Unavailability
	var deleted int64
	for i := range m.entries {
		e := m.entries[i]
		if e.UserID == userID && e.SourceSessionID != nil && *e.SourceSessionID == sessionID {
			deleted++
			continue
		}
		remaining = append(remaining, e)
	}
	m.entries = remaining
	return deleted, nil
}

func (m *mockUnavailabilityRepo) DeleteByRecurringGroup(_ context.Context, userID, groupID string) (int64, error) {
	var remaining []model.Unavailability
	var deleted int64
	for i := range m.entries {
		e := m.entries[i]
		if e.UserID == userID && e.SourceSessionID == nil &&
			e.RecurringGroupID != nil && *e.RecurringGroupID == groupID {
			deleted++
			continue
		}
		remaining = append(remaining, e)
	}
	m.entries = remaining
	return deleted, nil
}

// ── Mock SwapRequestRepository ──

type mockSwapRequestRepo struct {
	swaps       map[string]*model.SwapRequest
	users       *mockUserRepo
	assignments *mockAssignmentRepo
	idCounter   int
}

func newMockSwapRequestRepo() *mockSwapRequestRepo {
	return &mockSwapRequestRepo{swaps: make(map[string]*model.SwapRequest)}
}

func (m *mockSwapRequestRepo) Create(_ context.Context, swap *model.SwapRequest) error {
	if swap.SwapRequestID == "" {
		m.idCounter++
		swap.SwapRequestID = fmt.Sprintf("swap-%d", m.idCounter)
	}
	swap.Version = 1
	swap.CreatedAt = time.Now()
	swap.UpdatedAt = time.Now()
	cp := *swap
	cp.Requester = nil
	cp.Target = nil
	cp.RequesterAssignment = nil
	m.swaps[swap.SwapRequestID] = &cp
	return nil
}

func (m *mockSwapRequestRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	s, ok := m.swaps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if m.users != nil {
		if u, ok := m.users.users[cp.RequesterID]; ok {
			cp.Requester = u
		}
		if u, ok := m.users.users[cp.TargetID]; ok {
			cp.Target = u
		}
	}
	if m.assignments != nil {
		if a, err := m.assignments.GetByID(context.Background(), cp.RequesterAssignmentID); err == nil {
			cp.RequesterAssignment = a
		}
	}
	return &cp, nil
}

func (m *mockSwapRequestRepo) ListByUser(_ context.Context, userID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	var result []model.SwapRequest
	for _, s := range m.swaps {
		if s.RequesterID != userID && s.TargetID != userID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockSwapRequestRepo) ListNonTerminalByAssignments(_ context.Context, assignmentIDs []string) ([]model.SwapRequest, error) {
	ids := make(map[string]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		ids[id] = true
	}
	var result []model.SwapRequest
	for _, s := range m.swaps {
		if model.IsTerminalSwapStatus(s.Status) {
			continue
		}
		referenced := ids[s.RequesterAssignmentID]
		if s.TargetAssignmentID != nil && ids[*s.TargetAssignmentID] {
			referenced = true
		}
		if referenced {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSwapRequestRepo) Update(_ context.Context, swap *model.SwapRequest) error {
	cur, ok := m.swaps[swap.SwapRequestID]
	if !ok || cur.Version != swap.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *swap
	cp.Version = swap.Version + 1
	cp.Requester = nil
	cp.Target = nil
	cp.RequesterAssignment = nil
	m.swaps[swap.SwapRequestID] = &cp
	swap.Version = cp.Version
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	idCounter     int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.idCounter++
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("notif-%d", m.idCounter)
	}
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		if err := m.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for i := range m.notifications {
		n := m.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) error {
	for i := range m.notifications {
		if m.notifications[i].NotificationID == notificationID && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 测试聚合与通用辅助
// ════════════════════════════════════════════════════════════

// testRepos 聚合所有 mock repo 便于 seed 数据；关联装配走交叉引用
type testRepos struct {
	user           *mockUserRepo
	unit           *mockUnitRepo
	module         *mockModuleRepo
	session        *mockSessionRepo
	assignment     *mockAssignmentRepo
	skill          *mockFacilitatorSkillRepo
	unavailability *mockUnavailabilityRepo
	swap           *mockSwapRequestRepo
	notification   *mockNotificationRepo
	txCalls        int
}

func newTestRepos() *testRepos {
	r := &testRepos{
		user:           newMockUserRepo(),
		unit:           newMockUnitRepo(),
		module:         newMockModuleRepo(),
		session:        newMockSessionRepo(),
		assignment:     newMockAssignmentRepo(),
		skill:          newMockFacilitatorSkillRepo(),
		unavailability: newMockUnavailabilityRepo(),
		swap:           newMockSwapRequestRepo(),
		notification:   newMockNotificationRepo(),
	}
	r.unit.users = r.user
	r.module.units = r.unit
	r.session.modules = r.module
	r.session.assignments = r.assignment
	r.assignment.sessions = r.session
	r.assignment.users = r.user
	r.skill.modules = r.module
	r.swap.users = r.user
	r.swap.assignments = r.assignment
	return r
}

func (r *testRepos) toRepository() *repository.Repository {
	repo := &repository.Repository{
		User:             r.user,
		Unit:             r.unit,
		Module:           r.module,
		Session:          r.session,
		Assignment:       r.assignment,
		FacilitatorSkill: r.skill,
		Unavailability:   r.unavailability,
		SwapRequest:      r.swap,
		Notification:     r.notification,
	}
	// mock 下事务直通：fn 直接操作同一聚合，记录开启次数供断言
	repo.Tx = func(ctx context.Context, fn func(txRepo *repository.Repository) error) error {
		r.txCalls++
		return fn(repo)
	}
	return repo
}

func newTestConfig() *config.Config {
	return &config.Config{
		Scheduling: config.SchedulingConfig{
			StrictSkillCheck:    false,
			UnpublishGuardDays:  7,
			RecurringMaxEntries: 104,
		},
	}
}

func newTestNotifier(repo *repository.Repository) Notifier {
	mail := mailer.NewMailer(&config.MailConfig{Enabled: false}, zap.NewNop())
	return NewNotifier(repo, mail, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func mustDate(t string) time.Time {
	d, err := time.Parse("2006-01-02", t)
	if err != nil {
		panic(err)
	}
	return d
}
