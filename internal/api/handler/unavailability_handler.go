package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/service"
	"campus-roster/backend/pkg/response"
)

// UnavailabilityHandler 不可用时段 HTTP 处理器
type UnavailabilityHandler struct {
	unavailabilitySvc service.UnavailabilityService
}

// NewUnavailabilityHandler 创建 UnavailabilityHandler
func NewUnavailabilityHandler(unavailabilitySvc service.UnavailabilityService) *UnavailabilityHandler {
	return &UnavailabilityHandler{unavailabilitySvc: unavailabilitySvc}
}

// Create 创建手动不可用时段
// POST /api/v1/unavailability
func (h *UnavailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.unavailabilitySvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.Created(c, entry)
}

// Update 更新手动条目（自动条目受保护）
// PUT /api/v1/unavailability/:id
func (h *UnavailabilityHandler) Update(c *gin.Context) {
	var req dto.CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.unavailabilitySvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.OK(c, entry)
}

// Delete 删除手动条目
// DELETE /api/v1/unavailability/:id
func (h *UnavailabilityHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unavailabilitySvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.OK(c, nil)
}

// List 我的不可用时段（含发布传播的自动条目）
// GET /api/v1/unavailability
func (h *UnavailabilityHandler) List(c *gin.Context) {
	var req dto.UnavailabilityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entries, total, err := h.unavailabilitySvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.OKPage(c, entries, total, req.GetPage(), req.GetPageSize())
}

// GenerateRecurring 按周生成一组条目
// POST /api/v1/unavailability/recurring
func (h *UnavailabilityHandler) GenerateRecurring(c *gin.Context) {
	var req dto.GenerateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.unavailabilitySvc.GenerateRecurring(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.Created(c, result)
}

// DeleteRecurringGroup 删除整组周期条目
// DELETE /api/v1/unavailability/recurring/:groupId
func (h *UnavailabilityHandler) DeleteRecurringGroup(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deleted, err := h.unavailabilitySvc.DeleteRecurringGroup(c.Request.Context(), userID, c.Param("groupId"))
	if err != nil {
		h.handleUnavailabilityError(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": deleted})
}

func (h *UnavailabilityHandler) handleUnavailabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnavailabilityNotFound):
		response.NotFound(c, 16001, "不可用时间不存在")
	case errors.Is(err, service.ErrUnavailabilityProtected):
		response.Forbidden(c, 16002, "系统自动生成的不可用时间不可修改或删除")
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 16003, "日期不合法")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 16004, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrTimeRangeRequired):
		response.BadRequest(c, 16005, "非全天条目必须提供起止时间")
	case errors.Is(err, service.ErrRecurringTooMany):
		response.BadRequest(c, 16006, "周期生成的条目数超出单次上限")
	default:
		response.InternalError(c)
	}
}
