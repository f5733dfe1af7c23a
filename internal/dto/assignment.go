package dto

// ── 排班指派模块 DTO ──

// AssignRequest 指派引导员请求
type AssignRequest struct {
	SessionID     string `json:"session_id"     binding:"required,uuid"`
	FacilitatorID string `json:"facilitator_id" binding:"required,uuid"`
}

// BulkAssignRequest 批量指派请求
type BulkAssignRequest struct {
	Mode  string           `json:"mode"  binding:"omitempty,oneof=best_effort all_or_nothing"`
	Items []BulkAssignItem `json:"items" binding:"required,min=1,max=200,dive"`
}

// BulkAssignItem 批量指派明细
type BulkAssignItem struct {
	SessionID     string `json:"session_id"     binding:"required,uuid"`
	FacilitatorID string `json:"facilitator_id" binding:"required,uuid"`
}

// CheckAvailabilityRequest 可用性检测请求
type CheckAvailabilityRequest struct {
	FacilitatorID    string `json:"facilitator_id" binding:"required,uuid"`
	Date             string `json:"date"           binding:"required,datetime=2006-01-02"`
	StartTime        string `json:"start_time"     binding:"required,datetime=15:04"`
	EndTime          string `json:"end_time"       binding:"required,datetime=15:04"`
	ExcludeSessionID string `json:"exclude_session_id" binding:"omitempty,uuid"`
}

// ── 响应 ──

// AssignmentResponse 指派响应
// Warnings 携带软冲突明细（如未声明技能等级），指派本身已成功
type AssignmentResponse struct {
	ID            string                    `json:"id"`
	SessionID     string                    `json:"session_id"`
	FacilitatorID string                    `json:"facilitator_id"`
	Facilitator   *UserBrief                `json:"facilitator,omitempty"`
	IsConfirmed   bool                      `json:"is_confirmed"`
	CreatedAt     string                    `json:"created_at"`
	Warnings      []ConflictFindingResponse `json:"warnings,omitempty"`
}

// ConflictFindingResponse 单条冲突明细
type ConflictFindingResponse struct {
	Reason   string `json:"reason"`
	Detail   string `json:"detail"`
	Blocking bool   `json:"blocking"`
}

// AvailabilityResponse 可用性检测响应
type AvailabilityResponse struct {
	Available bool                      `json:"available"`
	Findings  []ConflictFindingResponse `json:"findings,omitempty"`
}

// BulkAssignResultResponse 批量指派结果
type BulkAssignResultResponse struct {
	Succeeded []AssignmentResponse `json:"succeeded"`
	Failed    []BulkAssignFailure  `json:"failed,omitempty"`
}

// BulkAssignFailure 批量指派失败明细
type BulkAssignFailure struct {
	SessionID     string                    `json:"session_id"`
	FacilitatorID string                    `json:"facilitator_id"`
	Findings      []ConflictFindingResponse `json:"findings,omitempty"`
	Message       string                    `json:"message"`
}
