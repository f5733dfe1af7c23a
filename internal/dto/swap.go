package dto

// ── 换班模块 DTO ──

// CreateSwapRequest 发起换班请求
type CreateSwapRequest struct {
	RequesterAssignmentID string  `json:"requester_assignment_id" binding:"required,uuid"`
	TargetID              string  `json:"target_id"               binding:"required,uuid"`
	TargetAssignmentID    *string `json:"target_assignment_id"    binding:"omitempty,uuid"` // 为空表示单向转让
	Reason                string  `json:"reason"                  binding:"required,min=2,max=500"`
	Discussed             bool    `json:"discussed"` // 发起方确认已与对方沟通
}

// RespondSwapRequest 目标引导员响应换班请求
type RespondSwapRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// SwapListRequest 换班列表查询参数
type SwapListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=facilitator_pending coordinator_pending approved declined rejected"`
	PaginationRequest
}

// ── 响应 ──

// SwapRequestResponse 换班请求响应
type SwapRequestResponse struct {
	ID                    string           `json:"id"`
	RequesterID           string           `json:"requester_id"`
	Requester             *UserBrief       `json:"requester,omitempty"`
	TargetID              string           `json:"target_id"`
	Target                *UserBrief       `json:"target,omitempty"`
	RequesterAssignmentID string           `json:"requester_assignment_id"`
	RequesterSession      *SessionResponse `json:"requester_session,omitempty"`
	TargetAssignmentID    *string          `json:"target_assignment_id,omitempty"`
	TargetSession         *SessionResponse `json:"target_session,omitempty"`
	Reason                string           `json:"reason"`
	Status                string           `json:"status"`
	RejectionReason       string           `json:"rejection_reason,omitempty"`
	CreatedAt             string           `json:"created_at"`
	UpdatedAt             string           `json:"updated_at"`
}
