package dto

// ── 发布模块 DTO ──

// PublishRequest 发布排班请求
type PublishRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// UnpublishRequest 撤回发布请求
type UnpublishRequest struct {
	Version int    `json:"version" binding:"required,min=1"`
	Reason  string `json:"reason"  binding:"omitempty,max=500"`
}

// ── 响应 ──

// PublicationResponse 发布/撤回结果响应
type PublicationResponse struct {
	Unit                UnitResponse `json:"unit"`
	SessionCount        int          `json:"session_count"`
	AssignmentCount     int          `json:"assignment_count"`
	AutoBlocksCreated   int          `json:"auto_blocks_created,omitempty"`
	AutoBlocksRemoved   int          `json:"auto_blocks_removed,omitempty"`
	SwapsRejected       int          `json:"swaps_rejected,omitempty"`
	NotificationsQueued int          `json:"notifications_queued"`
}
