package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
)

// ── 测试辅助 ──

func setupPublicationService(repos *testRepos, cfg *config.Config) PublicationService {
	if cfg == nil {
		cfg = newTestConfig()
	}
	repo := repos.toRepository()
	return NewPublicationService(cfg, repo, newTestNotifier(repo), zap.NewNop())
}

// seedAssignedUnit 在 seedTwoUnits 基础上把 fac-1 指派到 sess-a1
func seedAssignedUnit(repos *testRepos) *model.Session {
	session := seedTwoUnits(repos)
	repos.assignment.assignments = append(repos.assignment.assignments, model.Assignment{
		AssignmentID: "assign-1", SessionID: session.SessionID, FacilitatorID: "fac-1",
		VersionedModel: model.VersionedModel{Version: 1},
	})
	repos.session.sessions[session.SessionID].Status = model.SessionStatusAssigned
	return session
}

// ════════════════════════════════════════════════════════════
// Publish 测试
// ════════════════════════════════════════════════════════════

func TestPublicationService_Publish_Success(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	resp, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1")
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if resp.SessionCount != 1 || resp.AssignmentCount != 1 {
		t.Errorf("期望 1 课节 1 指派，实际 %d/%d", resp.SessionCount, resp.AssignmentCount)
	}
	// fac-1 同属单元 B，应收到 1 条自动条目
	if resp.AutoBlocksCreated != 1 {
		t.Errorf("期望创建 1 条自动条目，实际 %d", resp.AutoBlocksCreated)
	}
	if resp.NotificationsQueued != 1 {
		t.Errorf("期望 1 条发布通知，实际 %d", resp.NotificationsQueued)
	}

	unit := repos.unit.units["unit-a"]
	if unit.ScheduleStatus != model.ScheduleStatusPublished {
		t.Errorf("单元应进入 published 状态，实际 %s", unit.ScheduleStatus)
	}
	if unit.PublishedAt == nil || unit.PublishedBy == nil {
		t.Error("发布审计字段应已填写")
	}
	if got := repos.session.sessions[session.SessionID].Status; got != model.SessionStatusPublished {
		t.Errorf("课节应进入 published 状态，实际 %s", got)
	}
}

// 对已发布单元重复发布是幂等的：去重键保证第二次不产生新条目
func TestPublicationService_Publish_IdempotentOnPublished(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	resp, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 2}, "coord-1")
	if err != nil {
		t.Fatalf("重复发布应幂等成功: %v", err)
	}
	if resp.AutoBlocksCreated != 0 {
		t.Errorf("重复发布不应新建自动条目，实际 %d", resp.AutoBlocksCreated)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 1 {
		t.Errorf("自动条目应恰好 1 条，实际 %d", n)
	}
}

func TestPublicationService_Publish_UnitNotFound(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)

	_, err := svc.Publish(context.Background(), "nonexistent", &dto.PublishRequest{Version: 1}, "coord-1")
	if !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("期望 ErrUnitNotFound，实际: %v", err)
	}
}

// 发布传播后，另一单元对同一时段的指派应被占用冲突拦截
func TestPublicationService_Publish_CrossUnitBlocking(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}

	// 单元 B 的重叠课节
	repos.session.sessions["sess-b1"] = &model.Session{
		SessionID: "sess-b1", ModuleID: "mod-b",
		Date: session.Date, StartTime: "10:00", EndTime: "12:00",
		Status:         model.SessionStatusUnassigned,
		VersionedModel: model.VersionedModel{Version: 1},
	}

	assignSvc := setupAssignmentService(repos, nil)
	_, err := assignSvc.Assign(context.Background(), &dto.AssignRequest{
		SessionID: "sess-b1", FacilitatorID: "fac-1",
	}, "coord-1")
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("跨单元占用应拦截指派，实际: %v", err)
	}
	if findReason(conflictErr.Findings, ConflictReasonUnavailable) == nil {
		t.Errorf("期望 unavailable 冲突，实际: %+v", conflictErr.Findings)
	}
}

// ════════════════════════════════════════════════════════════
// Unpublish 测试
// ════════════════════════════════════════════════════════════

func TestPublicationService_Unpublish_FullReversal(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	// 手动条目不应被撤回回收
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-manual", UserID: "fac-1", Date: session.Date,
		IsFullDay: true, Reason: "个人事务",
	})

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 1 {
		t.Fatalf("前置条件失败：期望 1 条自动条目，实际 %d", n)
	}

	// 引用本单元指派的未决换班申请
	repos.swap.swaps["swap-1"] = &model.SwapRequest{
		SwapRequestID: "swap-1", RequesterID: "fac-1", TargetID: "fac-2",
		RequesterAssignmentID: "assign-1", Status: model.SwapStatusFacilitatorPending,
		VersionedModel: model.VersionedModel{Version: 1},
	}

	resp, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 2}, "coord-1")
	if err != nil {
		t.Fatalf("Unpublish 应成功: %v", err)
	}
	if resp.AutoBlocksRemoved != 1 {
		t.Errorf("期望回收 1 条自动条目，实际 %d", resp.AutoBlocksRemoved)
	}
	if resp.SwapsRejected != 1 {
		t.Errorf("期望级联拒绝 1 个换班申请，实际 %d", resp.SwapsRejected)
	}

	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 0 {
		t.Errorf("自动条目应全部回收，实际剩余 %d", n)
	}
	manualSurvives := false
	for _, e := range repos.unavailability.entries {
		if e.UnavailabilityID == "ua-manual" {
			manualSurvives = true
		}
	}
	if !manualSurvives {
		t.Error("手动条目不应被撤回回收")
	}

	swap := repos.swap.swaps["swap-1"]
	if swap.Status != model.SwapStatusRejected {
		t.Errorf("未决换班应被拒绝，实际 %s", swap.Status)
	}
	if swap.RejectionReason != "排班已被协调员撤回" {
		t.Errorf("拒绝原因不符，实际: %s", swap.RejectionReason)
	}

	unit := repos.unit.units["unit-a"]
	if unit.ScheduleStatus != model.ScheduleStatusDraft {
		t.Errorf("单元应退回 draft 状态，实际 %s", unit.ScheduleStatus)
	}
	if unit.UnpublishedAt == nil {
		t.Error("撤回审计字段应已填写")
	}
	if got := repos.session.sessions[session.SessionID].Status; got != model.SessionStatusAssigned {
		t.Errorf("有指派的课节应退回 assigned，实际 %s", got)
	}
}

func TestPublicationService_Unpublish_GuardWindow(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)
	// 课节落在保护窗口内
	today := time.Now().Truncate(24 * time.Hour)
	repos.session.sessions[session.SessionID].Date = today.AddDate(0, 0, 2)

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}

	_, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 2}, "coord-1")
	var blockedErr *UnpublishBlockedError
	if !errors.As(err, &blockedErr) {
		t.Fatalf("期望 UnpublishBlockedError，实际: %v", err)
	}
	if blockedErr.UpcomingSessions != 1 {
		t.Errorf("期望窗口内 1 个课节，实际 %d", blockedErr.UpcomingSessions)
	}
	if repos.unit.units["unit-a"].ScheduleStatus != model.ScheduleStatusPublished {
		t.Error("保护窗口拦截后单元应保持 published")
	}

	// 保护窗口是硬性拒绝，没有绕过通道；课节移出窗口后方可撤回
	repos.session.sessions[session.SessionID].Date = today.AddDate(0, 0, 30)
	if _, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 2}, "coord-1"); err != nil {
		t.Fatalf("窗口外撤回应成功: %v", err)
	}
	if repos.unit.units["unit-a"].ScheduleStatus != model.ScheduleStatusDraft {
		t.Error("撤回后单元应退回 draft")
	}
}

func TestPublicationService_Unpublish_NotPublished(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	seedAssignedUnit(repos)

	_, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 1}, "coord-1")
	if !errors.Is(err, ErrNotPublished) {
		t.Errorf("期望 ErrNotPublished，实际: %v", err)
	}
}

func TestPublicationService_Unpublish_UnitEnded(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	seedAssignedUnit(repos)
	today := time.Now().Truncate(24 * time.Hour)
	unit := repos.unit.units["unit-a"]
	unit.ScheduleStatus = model.ScheduleStatusPublished
	unit.EndDate = today.AddDate(0, 0, -1)

	_, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 1}, "coord-1")
	if !errors.Is(err, ErrUnitEnded) {
		t.Errorf("期望 ErrUnitEnded，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Republish 测试
// ════════════════════════════════════════════════════════════

// 发布后课节易主，再发布应清理旧主的失效自动条目并为新主重建
func TestPublicationService_Republish_RepairsStaleBlocks(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 1 {
		t.Fatalf("前置条件失败：期望 fac-1 有 1 条自动条目，实际 %d", n)
	}

	// 模拟发布后指派易主而条目未同步（绕过服务层的并发写场景）
	repos.assignment.assignments[0].FacilitatorID = "fac-2"

	resp, err := svc.Republish(context.Background(), "unit-a", &dto.PublishRequest{Version: 2}, "coord-1")
	if err != nil {
		t.Fatalf("Republish 应成功: %v", err)
	}
	if resp.AutoBlocksRemoved != 1 {
		t.Errorf("期望清理 1 条失效条目，实际 %d", resp.AutoBlocksRemoved)
	}
	if resp.AutoBlocksCreated != 1 {
		t.Errorf("期望为新主重建 1 条自动条目，实际 %d", resp.AutoBlocksCreated)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 0 {
		t.Errorf("旧主的失效条目应被清理，实际剩余 %d", n)
	}
	if n := countAutoBlocks(repos, "fac-2", session.SessionID); n != 1 {
		t.Errorf("新主应有 1 条自动条目，实际 %d", n)
	}

	// 再跑一次应零变更
	again, err := svc.Republish(context.Background(), "unit-a", &dto.PublishRequest{Version: 3}, "coord-1")
	if err != nil {
		t.Fatalf("重复 Republish 应幂等成功: %v", err)
	}
	if again.AutoBlocksCreated != 0 || again.AutoBlocksRemoved != 0 {
		t.Errorf("幂等重跑不应有增删，实际 +%d/-%d", again.AutoBlocksCreated, again.AutoBlocksRemoved)
	}
}

// 发布 → 撤回 → 再发布：自动条目恰好重建一份，无重复
func TestPublicationService_Republish_RecreatesBlocksOnce(t *testing.T) {
	repos := newTestRepos()
	svc := setupPublicationService(repos, nil)
	session := seedAssignedUnit(repos)

	if _, err := svc.Publish(context.Background(), "unit-a", &dto.PublishRequest{Version: 1}, "coord-1"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if _, err := svc.Unpublish(context.Background(), "unit-a", &dto.UnpublishRequest{Version: 2}, "coord-1"); err != nil {
		t.Fatalf("Unpublish 应成功: %v", err)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 0 {
		t.Fatalf("撤回后应无自动条目，实际 %d", n)
	}

	resp, err := svc.Republish(context.Background(), "unit-a", &dto.PublishRequest{Version: 3}, "coord-1")
	if err != nil {
		t.Fatalf("Republish 应成功: %v", err)
	}
	if resp.AutoBlocksCreated != 1 {
		t.Errorf("期望重建 1 条自动条目，实际 %d", resp.AutoBlocksCreated)
	}
	if n := countAutoBlocks(repos, "fac-1", session.SessionID); n != 1 {
		t.Errorf("自动条目应恰好 1 条，实际 %d", n)
	}
	if repos.unit.units["unit-a"].ScheduleStatus != model.ScheduleStatusPublished {
		t.Error("再发布后单元应为 published")
	}
	if repos.unit.units["unit-a"].UnpublishedAt != nil {
		t.Error("再发布应清空撤回审计字段")
	}
}
