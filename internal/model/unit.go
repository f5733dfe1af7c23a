package model

import "time"

// 单元排班状态
const (
	ScheduleStatusDraft     = "draft"
	ScheduleStatusPublished = "published"
)

// Unit 教学单元表 — 对应 units
// schedule_status 决定其课节指派是否向其他单元传播自动不可用时间
type Unit struct {
	UnitID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_id"`
	UnitCode       string     `gorm:"type:varchar(20);not null"                      json:"unit_code"`
	UnitName       string     `gorm:"type:varchar(200);not null"                     json:"unit_name"`
	Year           int        `gorm:"type:smallint;not null"                         json:"year"`
	Semester       string     `gorm:"type:varchar(20);not null"                      json:"semester"`
	StartDate      time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	ScheduleStatus string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"schedule_status"` // draft | published
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	PublishedBy    *string    `gorm:"type:uuid" json:"published_by,omitempty"`
	UnpublishedAt  *time.Time `json:"unpublished_at,omitempty"`
	UnpublishedBy  *string    `gorm:"type:uuid" json:"unpublished_by,omitempty"`
	VersionedModel

	// 关联
	Modules []Module `gorm:"foreignKey:UnitID" json:"modules,omitempty"`
}

// TableName 指定表名
func (Unit) TableName() string { return "units" }

// ContainsDate 日期是否落在 [start_date, end_date] 闭区间内
func (u *Unit) ContainsDate(d time.Time) bool {
	day := d.Truncate(24 * time.Hour)
	return !day.Before(u.StartDate) && !day.After(u.EndDate)
}

// UnitFacilitator 单元-带教员关联表 — 对应 unit_facilitators
type UnitFacilitator struct {
	UnitFacilitatorID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_facilitator_id"`
	UnitID            string    `gorm:"type:uuid;not null"                             json:"unit_id"`
	UserID            string    `gorm:"type:uuid;not null"                             json:"user_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (UnitFacilitator) TableName() string { return "unit_facilitators" }

// UnitCoordinator 单元-协调员关联表 — 对应 unit_coordinators
type UnitCoordinator struct {
	UnitCoordinatorID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_coordinator_id"`
	UnitID            string    `gorm:"type:uuid;not null"                             json:"unit_id"`
	UserID            string    `gorm:"type:uuid;not null"                             json:"user_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (UnitCoordinator) TableName() string { return "unit_coordinators" }
