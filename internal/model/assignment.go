package model

// Assignment 课节指派表 — 对应 assignments
// (Session, Facilitator) 关系；课节删除或改派时级联删除
type Assignment struct {
	AssignmentID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	SessionID     string `gorm:"type:uuid;not null"                             json:"session_id"`
	FacilitatorID string `gorm:"type:uuid;not null"                             json:"facilitator_id"`
	IsConfirmed   bool   `gorm:"not null;default:false"                         json:"is_confirmed"`
	VersionedModel

	// 关联
	Session     *Session `gorm:"foreignKey:SessionID;references:SessionID"  json:"session,omitempty"`
	Facilitator *User    `gorm:"foreignKey:FacilitatorID;references:UserID" json:"facilitator,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }
