package service

import (
	"context"
	"fmt"

	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 跨单元自动不可用时间传播 ──
//
// 某单元发布后，其每条指派都会向带教员所属的其他单元投影一条
// 自动不可用条目（落在目标单元日期范围内才创建），使其他单元的
// 冲突检测能看到该占用。条目以 source_session_id 溯源，
// 撤销发布或换班改派时按来源课节回收。

// createAutoBlocks 为一条指派向其他单元投影自动不可用条目，返回新建条数
// sourceUnitID 为课节所属单元，不向自身投影
func createAutoBlocks(ctx context.Context, repo *repository.Repository, session *model.Session, facilitatorID, sourceUnitID string) (int, error) {
	unitIDs, err := repo.Unit.ListUnitIDsByFacilitator(ctx, facilitatorID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, targetID := range unitIDs {
		if targetID == sourceUnitID {
			continue
		}
		target, err := repo.Unit.GetByID(ctx, targetID)
		if err != nil {
			return created, err
		}
		if !target.ContainsDate(session.Date) {
			continue
		}

		// 去重键: (user, unit, date, start, end, source_session)
		exists, err := repo.Unavailability.ExistsAuto(ctx, facilitatorID, targetID,
			session.Date, session.StartTime, session.EndTime, session.SessionID)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		startTime := session.StartTime
		endTime := session.EndTime
		sessionID := session.SessionID
		unitID := targetID
		entry := &model.Unavailability{
			UserID:          facilitatorID,
			UnitID:          &unitID,
			Date:            session.Date,
			StartTime:       &startTime,
			EndTime:         &endTime,
			IsFullDay:       false,
			Reason:          fmt.Sprintf("已发布排班占用 (%s-%s)", session.StartTime, session.EndTime),
			SourceSessionID: &sessionID,
		}
		if err := repo.Unavailability.Create(ctx, entry); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
