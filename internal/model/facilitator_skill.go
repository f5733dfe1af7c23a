package model

// 技能等级：no_interest 为硬性排除，冲突检测时直接拒绝指派
const (
	SkillLevelProficient    = "proficient"
	SkillLevelHaveRunBefore = "have_run_before"
	SkillLevelHaveSomeSkill = "have_some_skill"
	SkillLevelNoInterest    = "no_interest"
)

// IsValidSkillLevel 技能等级是否合法
func IsValidSkillLevel(level string) bool {
	switch level {
	case SkillLevelProficient, SkillLevelHaveRunBefore, SkillLevelHaveSomeSkill, SkillLevelNoInterest:
		return true
	}
	return false
}

// FacilitatorSkill 带教员技能声明表 — 对应 facilitator_skills
// (Facilitator, Module, SkillLevel) 三元组，每对组合唯一
type FacilitatorSkill struct {
	SkillID               string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"skill_id"`
	FacilitatorID         string `gorm:"type:uuid;not null"                             json:"facilitator_id"`
	ModuleID              string `gorm:"type:uuid;not null"                             json:"module_id"`
	SkillLevel            string `gorm:"type:varchar(20);not null"                      json:"skill_level"` // proficient | have_run_before | have_some_skill | no_interest
	ExperienceDescription string `gorm:"type:varchar(500)"                              json:"experience_description,omitempty"`
	VersionedModel

	// 关联
	Facilitator *User   `gorm:"foreignKey:FacilitatorID;references:UserID" json:"facilitator,omitempty"`
	Module      *Module `gorm:"foreignKey:ModuleID;references:ModuleID"    json:"module,omitempty"`
}

// TableName 指定表名
func (FacilitatorSkill) TableName() string { return "facilitator_skills" }
