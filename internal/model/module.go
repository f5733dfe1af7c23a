package model

// Module 教学模块表 — 对应 modules
// 同一模块下的课节共享技能域（如同一个实验流）
type Module struct {
	ModuleID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"module_id"`
	UnitID     string `gorm:"type:uuid;not null"                             json:"unit_id"`
	ModuleName string `gorm:"type:varchar(200);not null"                     json:"module_name"`
	ModuleType string `gorm:"type:varchar(50);not null;default:'general'"    json:"module_type"` // lab | workshop | tutorial | general
	VersionedModel

	// 关联
	Unit     *Unit     `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
	Sessions []Session `gorm:"foreignKey:ModuleID"                 json:"sessions,omitempty"`
}

// TableName 指定表名
func (Module) TableName() string { return "modules" }
