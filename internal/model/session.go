package model

import "time"

// 课节状态
const (
	SessionStatusUnassigned = "unassigned"
	SessionStatusAssigned   = "assigned"
	SessionStatusPublished  = "published"
)

// Session 课节表 — 对应 sessions
// 时间用 "HH:MM" 字符串表示，比较采用字典序
type Session struct {
	SessionID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	ModuleID    string    `gorm:"type:uuid;not null"                             json:"module_id"`
	Date        time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime   string    `gorm:"type:time;not null"                             json:"start_time"` // HH:MM
	EndTime     string    `gorm:"type:time;not null"                             json:"end_time"`   // HH:MM
	Location    string    `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	SessionType string    `gorm:"type:varchar(50);not null;default:'general'"    json:"session_type"`
	Status      string    `gorm:"type:varchar(20);not null;default:'unassigned'" json:"status"` // unassigned | assigned | published
	VersionedModel

	// 关联
	Module      *Module      `gorm:"foreignKey:ModuleID;references:ModuleID" json:"module,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:SessionID"                    json:"assignments,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// SameDate 两个日期是否为同一天（忽略时分秒）
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// TimeRangesOverlap 两个 "HH:MM" 时间段是否重叠（半开区间语义）
func TimeRangesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
