package dto

// ── 不可用时段模块 DTO ──

// CreateUnavailabilityRequest 创建不可用时段请求
type CreateUnavailabilityRequest struct {
	UnitID    *string `json:"unit_id"    binding:"omitempty,uuid"`
	Date      string  `json:"date"       binding:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time"   binding:"omitempty,datetime=15:04"`
	IsFullDay bool    `json:"is_full_day"`
	Reason    string  `json:"reason"     binding:"omitempty,max=500"`
}

// GenerateRecurringRequest 生成周期性不可用时段请求
type GenerateRecurringRequest struct {
	UnitID    *string `json:"unit_id"    binding:"omitempty,uuid"`
	StartDate string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date"   binding:"required,datetime=2006-01-02"`
	Weekday   int     `json:"weekday"    binding:"min=0,max=6"` // 0=周日
	StartTime *string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time"   binding:"omitempty,datetime=15:04"`
	IsFullDay bool    `json:"is_full_day"`
	Reason    string  `json:"reason"     binding:"omitempty,max=500"`
}

// UnavailabilityListRequest 不可用时段列表查询参数
type UnavailabilityListRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// UnavailabilityResponse 不可用时段响应
type UnavailabilityResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	UnitID           *string `json:"unit_id,omitempty"`
	Date             string  `json:"date"`
	StartTime        *string `json:"start_time,omitempty"`
	EndTime          *string `json:"end_time,omitempty"`
	IsFullDay        bool    `json:"is_full_day"`
	Reason           string  `json:"reason,omitempty"`
	IsAutoGenerated  bool    `json:"is_auto_generated"`
	RecurringGroupID *string `json:"recurring_group_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// RecurringResultResponse 周期生成结果
type RecurringResultResponse struct {
	GroupID string                   `json:"group_id"`
	Created int                      `json:"created"`
	Skipped int                      `json:"skipped"` // 与既有时段重复而跳过的条数
	Entries []UnavailabilityResponse `json:"entries"`
}
