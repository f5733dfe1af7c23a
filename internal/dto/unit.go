package dto

// ── 单元模块 DTO ──

// CreateUnitRequest 创建单元请求
type CreateUnitRequest struct {
	UnitCode  string `json:"unit_code" binding:"required,min=2,max=20"`
	UnitName  string `json:"unit_name" binding:"required,min=2,max=100"`
	Year      int    `json:"year"      binding:"required,min=2000,max=2100"`
	Semester  string `json:"semester"  binding:"required"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"required,datetime=2006-01-02"`
}

// UpdateUnitRequest 更新单元请求
type UpdateUnitRequest struct {
	UnitName  *string `json:"unit_name"  binding:"omitempty,min=2,max=100"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Version   int     `json:"version"    binding:"required,min=1"`
}

// UnitListRequest 单元列表查询参数
type UnitListRequest struct {
	Year     int    `form:"year"     binding:"omitempty,min=2000,max=2100"`
	Semester string `form:"semester" binding:"omitempty"`
	PaginationRequest
}

// AddFacilitatorRequest 添加引导员请求
type AddFacilitatorRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// CreateModuleRequest 创建教学模块请求
type CreateModuleRequest struct {
	ModuleName string `json:"module_name" binding:"required,min=1,max=100"`
	ModuleType string `json:"module_type" binding:"omitempty,max=50"`
}

// CreateSessionRequest 创建课节请求
type CreateSessionRequest struct {
	ModuleID    string `json:"module_id"  binding:"required,uuid"`
	Date        string `json:"date"       binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime     string `json:"end_time"   binding:"required,datetime=15:04"`
	Location    string `json:"location"   binding:"omitempty,max=100"`
	SessionType string `json:"session_type" binding:"omitempty,max=50"`
}

// UpdateSessionRequest 更新课节请求
type UpdateSessionRequest struct {
	Date      *string `json:"date"       binding:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time"   binding:"omitempty,datetime=15:04"`
	Location  *string `json:"location"   binding:"omitempty,max=100"`
	Version   int     `json:"version"    binding:"required,min=1"`
}

// ── 响应 ──

// UnitResponse 单元响应
type UnitResponse struct {
	ID             string  `json:"id"`
	UnitCode       string  `json:"unit_code"`
	UnitName       string  `json:"unit_name"`
	Year           int     `json:"year"`
	Semester       string  `json:"semester"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	ScheduleStatus string  `json:"schedule_status"`
	PublishedAt    *string `json:"published_at,omitempty"`
	UnpublishedAt  *string `json:"unpublished_at,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// UnitDetailResponse 单元详情响应（含模块树）
type UnitDetailResponse struct {
	UnitResponse
	Modules      []ModuleResponse `json:"modules"`
	Facilitators []UserBrief      `json:"facilitators"`
	Coordinators []UserBrief      `json:"coordinators"`
}

// ModuleResponse 教学模块响应
type ModuleResponse struct {
	ID         string            `json:"id"`
	UnitID     string            `json:"unit_id"`
	ModuleName string            `json:"module_name"`
	ModuleType string            `json:"module_type,omitempty"`
	Sessions   []SessionResponse `json:"sessions,omitempty"`
}

// SessionResponse 课节响应
type SessionResponse struct {
	ID          string               `json:"id"`
	ModuleID    string               `json:"module_id"`
	Date        string               `json:"date"`
	StartTime   string               `json:"start_time"`
	EndTime     string               `json:"end_time"`
	Location    string               `json:"location,omitempty"`
	SessionType string               `json:"session_type,omitempty"`
	Status      string               `json:"status"`
	Version     int                  `json:"version"`
	Assignments []AssignmentResponse `json:"assignments,omitempty"`
}

// SessionCandidateResponse 课节候选引导员响应
type SessionCandidateResponse struct {
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	SkillLevel string   `json:"skill_level"`
	Available  bool     `json:"available"`
	Conflicts  []string `json:"conflicts,omitempty"` // 冲突原因列表
}
