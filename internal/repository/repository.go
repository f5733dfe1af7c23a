package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User             UserRepository
	Unit             UnitRepository
	Module           ModuleRepository
	Session          SessionRepository
	Assignment       AssignmentRepository
	FacilitatorSkill FacilitatorSkillRepository
	Unavailability   UnavailabilityRepository
	SwapRequest      SwapRequestRepository
	Notification     NotificationRepository

	// Tx 在单个数据库事务内执行 fn，fn 收到的聚合绑定到事务连接。
	// fn 返回错误时整个事务回滚。
	Tx func(ctx context.Context, fn func(txRepo *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := &Repository{
		User:             NewUserRepo(db),
		Unit:             NewUnitRepo(db),
		Module:           NewModuleRepo(db),
		Session:          NewSessionRepo(db),
		Assignment:       NewAssignmentRepo(db),
		FacilitatorSkill: NewFacilitatorSkillRepo(db),
		Unavailability:   NewUnavailabilityRepo(db),
		SwapRequest:      NewSwapRequestRepo(db),
		Notification:     NewNotificationRepo(db),
	}
	r.Tx = func(ctx context.Context, fn func(txRepo *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepository(tx))
		})
	}
	return r
}
