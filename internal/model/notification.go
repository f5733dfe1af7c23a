package model

import "time"

// 站内通知类型
const (
	NotificationTypeGeneral             = "general"
	NotificationTypeSchedulePublished   = "schedule_published"
	NotificationTypeScheduleUnpublished = "schedule_unpublished"
	NotificationTypeSwapExecuted        = "swap_executed"
	NotificationTypeSwapRequested       = "swap_requested"
	NotificationTypeSwapRejected        = "swap_rejected"
	NotificationTypeSwapDeclined        = "swap_declined"
)

// Notification 站内通知表 — 对应 notifications
type Notification struct {
	NotificationID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID           string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Message          string    `gorm:"type:varchar(500);not null"                     json:"message"`
	NotificationType string    `gorm:"type:varchar(50);not null;default:'general'"    json:"notification_type"`
	IsRead           bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
