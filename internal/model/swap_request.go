package model

import "time"

// 换班申请状态（完整枚举）
// 主流程仅产生 approved（即时自动批准）与 rejected（撤销发布级联拒绝）；
// facilitator_pending 由功能开关 feature.swap_approval_enabled 激活；
// coordinator_pending / declined 当前保持休眠，留待审批流程扩展。
const (
	SwapStatusFacilitatorPending = "facilitator_pending"
	SwapStatusCoordinatorPending = "coordinator_pending"
	SwapStatusApproved           = "approved"
	SwapStatusDeclined           = "declined"
	SwapStatusRejected           = "rejected"
)

// IsTerminalSwapStatus 状态是否为终态
func IsTerminalSwapStatus(status string) bool {
	switch status {
	case SwapStatusApproved, SwapStatusDeclined, SwapStatusRejected:
		return true
	case SwapStatusFacilitatorPending, SwapStatusCoordinatorPending:
		return false
	}
	return false
}

// SwapRequest 换班申请表 — 对应 swap_requests
type SwapRequest struct {
	SwapRequestID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"swap_request_id"`
	RequesterID            string     `gorm:"type:uuid;not null"                             json:"requester_id"`
	TargetID               string     `gorm:"type:uuid;not null"                             json:"target_id"`
	RequesterAssignmentID  string     `gorm:"type:uuid;not null"                             json:"requester_assignment_id"`
	TargetAssignmentID     *string    `gorm:"type:uuid"                                      json:"target_assignment_id,omitempty"`
	Reason                 string     `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status                 string     `gorm:"type:varchar(30);not null;default:'approved'"   json:"status"`
	FacilitatorConfirmed   bool       `gorm:"not null;default:false"                         json:"facilitator_confirmed"`
	FacilitatorConfirmedAt *time.Time `json:"facilitator_confirmed_at,omitempty"`
	RejectionReason        string     `gorm:"type:varchar(500)"                              json:"rejection_reason,omitempty"`
	VersionedModel

	// 关联
	Requester           *User       `gorm:"foreignKey:RequesterID;references:UserID"                 json:"requester,omitempty"`
	Target              *User       `gorm:"foreignKey:TargetID;references:UserID"                    json:"target,omitempty"`
	RequesterAssignment *Assignment `gorm:"foreignKey:RequesterAssignmentID;references:AssignmentID" json:"requester_assignment,omitempty"`
}

// TableName 指定表名
func (SwapRequest) TableName() string { return "swap_requests" }
