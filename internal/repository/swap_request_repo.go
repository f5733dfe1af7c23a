package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-roster/backend/internal/model"
	pkgerrors "campus-roster/backend/pkg/errors"
)

// SwapRequestRepository 换班申请数据访问接口
type SwapRequestRepository interface {
	Create(ctx context.Context, swap *model.SwapRequest) error
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)
	ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.SwapRequest, int64, error)
	// ListNonTerminalByAssignments 引用给定指派、且未到终态的全部换班申请
	ListNonTerminalByAssignments(ctx context.Context, assignmentIDs []string) ([]model.SwapRequest, error)
	Update(ctx context.Context, swap *model.SwapRequest) error
}

// swapRequestRepo SwapRequestRepository 的 GORM 实现
type swapRequestRepo struct {
	db *gorm.DB
}

// NewSwapRequestRepo 创建 SwapRequestRepository 实例
func NewSwapRequestRepo(db *gorm.DB) SwapRequestRepository {
	return &swapRequestRepo{db: db}
}

func (r *swapRequestRepo) Create(ctx context.Context, swap *model.SwapRequest) error {
	return r.db.WithContext(ctx).Create(swap).Error
}

func (r *swapRequestRepo) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	var swap model.SwapRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Target").
		Preload("RequesterAssignment").
		Preload("RequesterAssignment.Session").
		Where("swap_request_id = ?", id).
		First(&swap).Error
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

// ListByUser 某用户发起或被指向的换班申请
func (r *swapRequestRepo) ListByUser(ctx context.Context, userID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	var swaps []model.SwapRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("requester_id = ? OR target_id = ?", userID, userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Requester").
		Preload("Target").
		Preload("RequesterAssignment").
		Preload("RequesterAssignment.Session").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&swaps).Error; err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

func (r *swapRequestRepo) ListNonTerminalByAssignments(ctx context.Context, assignmentIDs []string) ([]model.SwapRequest, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	var swaps []model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("(requester_assignment_id IN ? OR target_assignment_id IN ?) AND status IN ?",
			assignmentIDs, assignmentIDs,
			[]string{model.SwapStatusFacilitatorPending, model.SwapStatusCoordinatorPending}).
		Find(&swaps).Error
	return swaps, err
}

func (r *swapRequestRepo) Update(ctx context.Context, swap *model.SwapRequest) error {
	oldVersion := swap.Version
	result := r.db.WithContext(ctx).
		Model(swap).
		Where("swap_request_id = ? AND version = ?", swap.SwapRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":                   swap.Status,
			"facilitator_confirmed":    swap.FacilitatorConfirmed,
			"facilitator_confirmed_at": swap.FacilitatorConfirmedAt,
			"rejection_reason":         swap.RejectionReason,
			"updated_by":               swap.UpdatedBy,
			"version":                  oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	swap.Version = oldVersion + 1
	return nil
}
