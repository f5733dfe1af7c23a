package dto

// ── 技能模块 DTO ──

// UpsertSkillsRequest 批量维护技能等级请求
type UpsertSkillsRequest struct {
	Skills []SkillItem `json:"skills" binding:"required,min=1,dive"`
}

// SkillItem 单条技能等级
type SkillItem struct {
	ModuleID   string `json:"module_id"   binding:"required,uuid"`
	SkillLevel string `json:"skill_level" binding:"required,oneof=proficient have_run_before have_some_skill no_interest"`
}

// ── 响应 ──

// SkillResponse 技能等级响应
type SkillResponse struct {
	ModuleID   string `json:"module_id"`
	ModuleName string `json:"module_name,omitempty"`
	SkillLevel string `json:"skill_level"`
}

// UnitSkillsResponse 某单元下某引导员的全部技能
type UnitSkillsResponse struct {
	FacilitatorID string          `json:"facilitator_id"`
	UnitID        string          `json:"unit_id"`
	Skills        []SkillResponse `json:"skills"`
}
