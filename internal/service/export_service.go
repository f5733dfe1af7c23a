package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSessions   = errors.New("该单元暂无课节")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 单元排班导出为 Excel (.xlsx)，按日期排序的课节清单
//   - 带教员个人日程导出为 iCalendar (.ics)，可直接订阅到日历客户端
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportUnitSchedule 导出单元排班为 Excel
	ExportUnitSchedule(ctx context.Context, unitID string) (*bytes.Buffer, string, error)
	// ExportFacilitatorICS 导出带教员已发布课节为 ICS 日历
	ExportFacilitatorICS(ctx context.Context, facilitatorID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportUnitSchedule — 导出单元排班为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，标题行为单元信息
//   - 列：日期 | 星期 | 时间 | 模块 | 地点 | 带教员 | 状态
//   - 按日期 + 开始时间排序

func (s *exportService) ExportUnitSchedule(ctx context.Context, unitID string) (*bytes.Buffer, string, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUnitNotFound
		}
		s.logger.Error("查询单元失败", zap.Error(err))
		return nil, "", err
	}

	sessions, err := s.repo.Session.ListByUnit(ctx, unitID)
	if err != nil {
		s.logger.Error("查询课节失败", zap.Error(err))
		return nil, "", err
	}
	if len(sessions) == 0 {
		return nil, "", ErrExportNoSessions
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !model.SameDate(sessions[i].Date, sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 14)
	f.SetColWidth(sheetName, "D", "D", 24)
	f.SetColWidth(sheetName, "E", "E", 18)
	f.SetColWidth(sheetName, "F", "F", 28)
	f.SetColWidth(sheetName, "G", "G", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s — 排班表 (%s %d)",
		unit.UnitCode, unit.UnitName, unit.Semester, unit.Year))
	f.MergeCell(sheetName, "A1", "G1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "星期", "时间", "模块", "地点", "带教员", "状态"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	weekdayNames := map[time.Weekday]string{
		time.Monday: "周一", time.Tuesday: "周二", time.Wednesday: "周三",
		time.Thursday: "周四", time.Friday: "周五", time.Saturday: "周六", time.Sunday: "周日",
	}

	row := 3
	for i := range sessions {
		session := &sessions[i]

		moduleName := ""
		if session.Module != nil {
			moduleName = session.Module.ModuleName
		}

		names := make([]string, 0, len(session.Assignments))
		for j := range session.Assignments {
			if u := session.Assignments[j].Facilitator; u != nil {
				names = append(names, u.FullName())
			}
		}
		facilitatorText := "未分配"
		if len(names) > 0 {
			sort.Strings(names)
			facilitatorText = names[0]
			for _, n := range names[1:] {
				facilitatorText += ", " + n
			}
		}

		f.SetCellValue(sheetName, cell("A", row), session.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), weekdayNames[session.Date.Weekday()])
		f.SetCellValue(sheetName, cell("C", row), fmt.Sprintf("%s-%s", session.StartTime, session.EndTime))
		f.SetCellValue(sheetName, cell("D", row), moduleName)
		f.SetCellValue(sheetName, cell("E", row), session.Location)
		f.SetCellValue(sheetName, cell("F", row), facilitatorText)
		f.SetCellValue(sheetName, cell("G", row), session.Status)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班表_%s_%s%d.xlsx", unit.UnitCode, unit.Semester, unit.Year)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportFacilitatorICS — 导出个人日程为 ICS
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportFacilitatorICS(ctx context.Context, facilitatorID string) (*bytes.Buffer, string, error) {
	assignments, err := s.repo.Assignment.ListByFacilitator(ctx, facilitatorID)
	if err != nil {
		s.logger.Error("查询个人指派失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-roster//schedule//CN")

	now := time.Now()
	for i := range assignments {
		a := &assignments[i]
		session := a.Session
		if session == nil {
			continue
		}
		// 只导出已发布课节，草稿排班不进日历
		if session.Status != model.SessionStatusPublished {
			continue
		}

		start, err := combineDateTime(session.Date, session.StartTime)
		if err != nil {
			continue
		}
		end, err := combineDateTime(session.Date, session.EndTime)
		if err != nil {
			continue
		}

		summary := "课节"
		if session.Module != nil {
			summary = session.Module.ModuleName
		}

		evt := cal.AddEvent(fmt.Sprintf("%s@campus-roster", a.AssignmentID))
		evt.SetCreatedTime(now)
		evt.SetDtStampTime(now)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(summary)
		if session.Location != "" {
			evt.SetLocation(session.Location)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%s.ics", now.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// combineDateTime 把日期与 "HH:MM" 合成本地时间
func combineDateTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
}
