package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/service"
	pkgerrors "campus-roster/backend/pkg/errors"
	"campus-roster/backend/pkg/response"
)

// UnitHandler 单元模块 HTTP 处理器
type UnitHandler struct {
	unitSvc service.UnitService
}

// NewUnitHandler 创建 UnitHandler
func NewUnitHandler(unitSvc service.UnitService) *UnitHandler {
	return &UnitHandler{unitSvc: unitSvc}
}

// CreateUnit 创建单元（创建者自动成为协调员）
// POST /api/v1/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req dto.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	unit, err := h.unitSvc.CreateUnit(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, unit)
}

// GetUnit 单元详情（含模块树与成员）
// GET /api/v1/units/:id
func (h *UnitHandler) GetUnit(c *gin.Context) {
	unit, err := h.unitSvc.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, unit)
}

// ListUnits 单元列表
// GET /api/v1/units
func (h *UnitHandler) ListUnits(c *gin.Context) {
	var req dto.UnitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	units, total, err := h.unitSvc.ListUnits(c.Request.Context(), &req)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OKPage(c, units, total, req.GetPage(), req.GetPageSize())
}

// UpdateUnit 更新单元
// PUT /api/v1/units/:id
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	var req dto.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	unit, err := h.unitSvc.UpdateUnit(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, unit)
}

// AddFacilitator 添加单元成员
// POST /api/v1/units/:id/facilitators
func (h *UnitHandler) AddFacilitator(c *gin.Context) {
	var req dto.AddFacilitatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unitSvc.AddFacilitator(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, nil)
}

// RemoveFacilitator 移除单元成员
// DELETE /api/v1/units/:id/facilitators/:uid
func (h *UnitHandler) RemoveFacilitator(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unitSvc.RemoveFacilitator(c.Request.Context(), c.Param("id"), c.Param("uid"), callerID); err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateModule 创建教学模块
// POST /api/v1/units/:id/modules
func (h *UnitHandler) CreateModule(c *gin.Context) {
	var req dto.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mod, err := h.unitSvc.CreateModule(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, mod)
}

// CreateSession 创建课节
// POST /api/v1/units/:id/sessions
func (h *UnitHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.unitSvc.CreateSession(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, session)
}

// UpdateSession 更新课节（已发布单元自动重建传播条目）
// PUT /api/v1/sessions/:id
func (h *UnitHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.unitSvc.UpdateSession(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, session)
}

// DeleteSession 删除课节
// DELETE /api/v1/sessions/:id
func (h *UnitHandler) DeleteSession(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unitSvc.DeleteSession(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetSessionCandidates 课节候选带教员
// GET /api/v1/sessions/:id/candidates
func (h *UnitHandler) GetSessionCandidates(c *gin.Context) {
	candidates, err := h.unitSvc.GetSessionCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": candidates})
}

func (h *UnitHandler) handleUnitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 12001, "单元不存在")
	case errors.Is(err, service.ErrUnitAlreadyExists):
		response.Conflict(c, 12002, "同学期下该单元代码已存在")
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 12003, "日期不合法")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 12004, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12005, "用户不存在")
	case errors.Is(err, service.ErrNotFacilitatorRole):
		response.BadRequest(c, 12006, "只能添加带教员角色的用户")
	case errors.Is(err, service.ErrAlreadyMember):
		response.Conflict(c, 12007, "该用户已是此单元成员")
	case errors.Is(err, service.ErrFacilitatorHasAssignments):
		response.Conflict(c, 12008, "该带教员在已发布排班中仍有课节指派，请先改派")
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 12009, "教学模块不存在")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12010, "课节不存在")
	case errors.Is(err, service.ErrSessionOutsideUnitDates):
		response.BadRequest(c, 12011, "课节日期超出单元日期范围")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12012, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
