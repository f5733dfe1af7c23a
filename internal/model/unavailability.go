package model

import "time"

// Unavailability 不可用时间表 — 对应 unavailabilities
//
// source_session_id 是手动/自动条目的唯一判别字段（对外契约，UI 据此决定可编辑性）：
//   - 非空 ⇒ 发布状态机自动生成，终端用户不可编辑、不可删除，
//     仅在所属单元撤销发布或来源课节改派时由系统回收；
//   - 为空 ⇒ 带教员手动创建，可自由编辑。
//
// 同一天允许手动与自动条目并存（各自独立成行，不合并）。
type Unavailability struct {
	UnavailabilityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unavailability_id"`
	UserID           string    `gorm:"type:uuid;not null"                             json:"user_id"`
	UnitID           *string   `gorm:"type:uuid"                                      json:"unit_id,omitempty"`
	Date             time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime        *string   `gorm:"type:time"                                      json:"start_time,omitempty"` // HH:MM，全天条目为空
	EndTime          *string   `gorm:"type:time"                                      json:"end_time,omitempty"`   // HH:MM，全天条目为空
	IsFullDay        bool      `gorm:"not null;default:false"                         json:"is_full_day"`
	Reason           string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	SourceSessionID  *string   `gorm:"type:uuid"                                      json:"source_session_id,omitempty"`
	RecurringGroupID *string   `gorm:"type:uuid"                                      json:"recurring_group_id,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Unit *Unit `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
}

// TableName 指定表名
func (Unavailability) TableName() string { return "unavailabilities" }

// IsAutoGenerated 是否为系统自动生成条目
func (u *Unavailability) IsAutoGenerated() bool {
	return u.SourceSessionID != nil
}

// CoversTimeRange 条目是否与给定 "HH:MM" 时间段重叠
// 全天条目（或起止时间缺失的条目）覆盖任意时间段
func (u *Unavailability) CoversTimeRange(start, end string) bool {
	if u.IsFullDay || u.StartTime == nil || u.EndTime == nil {
		return true
	}
	return TimeRangesOverlap(*u.StartTime, *u.EndTime, start, end)
}
