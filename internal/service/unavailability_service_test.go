package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-roster/backend/config"
	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/model"
)

// ── 测试辅助 ──

func setupUnavailabilityService(repos *testRepos, cfg *config.Config) UnavailabilityService {
	if cfg == nil {
		cfg = newTestConfig()
	}
	return NewUnavailabilityService(cfg, repos.toRepository(), zap.NewNop())
}

// ════════════════════════════════════════════════════════════
// Create / Update / Delete 测试
// ════════════════════════════════════════════════════════════

func TestUnavailabilityService_Create_Success(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)

	resp, err := svc.Create(context.Background(), "fac-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-14", StartTime: strPtr("09:00"), EndTime: strPtr("12:00"), Reason: "门诊复诊",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.IsAutoGenerated {
		t.Error("手动条目不应标记为自动生成")
	}
	if resp.Date != "2026-09-14" {
		t.Errorf("期望日期 2026-09-14，实际 %s", resp.Date)
	}
	if len(repos.unavailability.entries) != 1 {
		t.Errorf("期望落库 1 条，实际 %d", len(repos.unavailability.entries))
	}
}

func TestUnavailabilityService_Create_TimeValidation(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)

	_, err := svc.Create(context.Background(), "fac-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-14",
	})
	if !errors.Is(err, ErrTimeRangeRequired) {
		t.Errorf("非全天条目缺时间应报 ErrTimeRangeRequired，实际: %v", err)
	}

	_, err = svc.Create(context.Background(), "fac-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-14", StartTime: strPtr("12:00"), EndTime: strPtr("09:00"),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("起止颠倒应报 ErrInvalidTimeRange，实际: %v", err)
	}

	// 全天条目无需时间
	if _, err := svc.Create(context.Background(), "fac-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-14", IsFullDay: true,
	}); err != nil {
		t.Errorf("全天条目应成功: %v", err)
	}
}

func TestUnavailabilityService_Update_AutoEntryProtected(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-1", UserID: "fac-1", Date: mustDate("2026-09-14"),
		StartTime: strPtr("09:00"), EndTime: strPtr("11:00"),
		SourceSessionID: strPtr("sess-a1"),
	})

	_, err := svc.Update(context.Background(), "fac-1", "ua-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-15", IsFullDay: true,
	})
	if !errors.Is(err, ErrUnavailabilityProtected) {
		t.Errorf("自动条目应拒绝修改，实际: %v", err)
	}
}

func TestUnavailabilityService_Delete_AutoEntryProtected(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-1", UserID: "fac-1", Date: mustDate("2026-09-14"),
		IsFullDay:       true,
		SourceSessionID: strPtr("sess-a1"),
	})

	err := svc.Delete(context.Background(), "fac-1", "ua-1")
	if !errors.Is(err, ErrUnavailabilityProtected) {
		t.Errorf("自动条目应拒绝删除，实际: %v", err)
	}
	if len(repos.unavailability.entries) != 1 {
		t.Error("保护拦截后条目应仍在")
	}
}

func TestUnavailabilityService_Delete_NotOwn(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-1", UserID: "fac-1", Date: mustDate("2026-09-14"), IsFullDay: true,
	})

	err := svc.Delete(context.Background(), "fac-2", "ua-1")
	if !errors.Is(err, ErrUnavailabilityNotFound) {
		t.Errorf("他人条目应视为不存在，实际: %v", err)
	}
}

func TestUnavailabilityService_Update_ManualSuccess(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-1", UserID: "fac-1", Date: mustDate("2026-09-14"),
		StartTime: strPtr("09:00"), EndTime: strPtr("11:00"),
	})

	resp, err := svc.Update(context.Background(), "fac-1", "ua-1", &dto.CreateUnavailabilityRequest{
		Date: "2026-09-15", IsFullDay: true, Reason: "校外培训",
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if !resp.IsFullDay || resp.StartTime != nil {
		t.Error("改为全天后应清空起止时间")
	}
	if repos.unavailability.entries[0].Reason != "校外培训" {
		t.Errorf("原因应已更新，实际: %s", repos.unavailability.entries[0].Reason)
	}
}

// ════════════════════════════════════════════════════════════
// List 测试
// ════════════════════════════════════════════════════════════

func TestUnavailabilityService_List_DateFilter(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)
	for _, d := range []string{"2026-09-07", "2026-09-14", "2026-09-21"} {
		repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
			UnavailabilityID: "ua-" + d, UserID: "fac-1", Date: mustDate(d), IsFullDay: true,
		})
	}

	entries, total, err := svc.List(context.Background(), "fac-1", &dto.UnavailabilityListRequest{
		From: "2026-09-10", To: "2026-09-20",
	})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("期望 1 条，实际 total=%d len=%d", total, len(entries))
	}
	if entries[0].Date != "2026-09-14" {
		t.Errorf("期望 2026-09-14，实际 %s", entries[0].Date)
	}
}

// ════════════════════════════════════════════════════════════
// GenerateRecurring 测试
// ════════════════════════════════════════════════════════════

func TestUnavailabilityService_GenerateRecurring_Weekly(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)

	// 2026-09-01 是周二；生成 9 月的每个周一
	resp, err := svc.GenerateRecurring(context.Background(), "fac-1", &dto.GenerateRecurringRequest{
		StartDate: "2026-09-01", EndDate: "2026-09-30", Weekday: 1,
		StartTime: strPtr("09:00"), EndTime: strPtr("12:00"), Reason: "每周例会",
	})
	if err != nil {
		t.Fatalf("GenerateRecurring 应成功: %v", err)
	}
	// 9/7, 9/14, 9/21, 9/28
	if resp.Created != 4 {
		t.Errorf("期望生成 4 条，实际 %d", resp.Created)
	}
	if resp.GroupID == "" {
		t.Error("同组条目应携带 group_id")
	}
	for _, e := range resp.Entries {
		if e.RecurringGroupID == nil || *e.RecurringGroupID != resp.GroupID {
			t.Errorf("条目 %s 的 group_id 不一致", e.ID)
		}
	}
	if resp.Entries[0].Date != "2026-09-07" {
		t.Errorf("首条应为 2026-09-07，实际 %s", resp.Entries[0].Date)
	}
}

func TestUnavailabilityService_GenerateRecurring_InvalidRange(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)

	_, err := svc.GenerateRecurring(context.Background(), "fac-1", &dto.GenerateRecurringRequest{
		StartDate: "2026-09-30", EndDate: "2026-09-01", Weekday: 1, IsFullDay: true,
	})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("期望 ErrInvalidDateRange，实际: %v", err)
	}
}

func TestUnavailabilityService_GenerateRecurring_CapEnforced(t *testing.T) {
	repos := newTestRepos()
	cfg := newTestConfig()
	cfg.Scheduling.RecurringMaxEntries = 2
	svc := setupUnavailabilityService(repos, cfg)

	_, err := svc.GenerateRecurring(context.Background(), "fac-1", &dto.GenerateRecurringRequest{
		StartDate: "2026-09-01", EndDate: "2026-09-30", Weekday: 1, IsFullDay: true,
	})
	if !errors.Is(err, ErrRecurringTooMany) {
		t.Errorf("期望 ErrRecurringTooMany，实际: %v", err)
	}
	if len(repos.unavailability.entries) != 0 {
		t.Error("超限时不应落库任何条目")
	}
}

func TestUnavailabilityService_DeleteRecurringGroup(t *testing.T) {
	repos := newTestRepos()
	svc := setupUnavailabilityService(repos, nil)

	resp, err := svc.GenerateRecurring(context.Background(), "fac-1", &dto.GenerateRecurringRequest{
		StartDate: "2026-09-01", EndDate: "2026-09-30", Weekday: 1, IsFullDay: true,
	})
	if err != nil {
		t.Fatalf("GenerateRecurring 应成功: %v", err)
	}
	// 同组 group_id 的自动条目不应被整组删除波及
	repos.unavailability.entries = append(repos.unavailability.entries, model.Unavailability{
		UnavailabilityID: "ua-auto", UserID: "fac-1", Date: mustDate("2026-09-07"),
		IsFullDay: true, SourceSessionID: strPtr("sess-a1"), RecurringGroupID: &resp.GroupID,
	})

	deleted, err := svc.DeleteRecurringGroup(context.Background(), "fac-1", resp.GroupID)
	if err != nil {
		t.Fatalf("DeleteRecurringGroup 应成功: %v", err)
	}
	if deleted != 4 {
		t.Errorf("期望删除 4 条，实际 %d", deleted)
	}
	if len(repos.unavailability.entries) != 1 {
		t.Errorf("自动条目应幸存，实际剩余 %d 条", len(repos.unavailability.entries))
	}
}
