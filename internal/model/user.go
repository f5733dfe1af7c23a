package model

import "strings"

// 角色层级：admin > unit_coordinator > facilitator
const (
	RoleAdmin           = "admin"
	RoleUnitCoordinator = "unit_coordinator"
	RoleFacilitator     = "facilitator"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"          json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                      json:"-"`
	FirstName    string `gorm:"type:varchar(100);not null"                      json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null;default:''"           json:"last_name"`
	Role         string `gorm:"type:varchar(20);not null;default:'facilitator'" json:"role"` // admin | unit_coordinator | facilitator
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 拼接姓名，为空时回退到邮箱
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// HasRoleAccess 层级角色判断：高级角色继承低级角色的权限
func HasRoleAccess(userRole, requiredRole string) bool {
	hierarchy := map[string][]string{
		RoleAdmin:           {RoleAdmin, RoleUnitCoordinator, RoleFacilitator},
		RoleUnitCoordinator: {RoleUnitCoordinator, RoleFacilitator},
		RoleFacilitator:     {RoleFacilitator},
	}
	for _, r := range hierarchy[userRole] {
		if r == requiredRole {
			return true
		}
	}
	return false
}
