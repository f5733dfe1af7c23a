package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/service"
	pkgerrors "campus-roster/backend/pkg/errors"
	"campus-roster/backend/pkg/response"
)

// AssignmentHandler 指派模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// Assign 指派带教员到课节
// POST /api/v1/assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.Assign(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, assignment)
}

// Unassign 撤销指派
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.Unassign(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// BulkAssign 批量指派
// POST /api/v1/assignments/bulk
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.BulkAssign(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckAvailability 可用性检测（只读，不落库）
// POST /api/v1/assignments/check
func (h *AssignmentHandler) CheckAvailability(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.assignmentSvc.CheckAvailability(c.Request.Context(), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// ListBySession 课节的全部指派
// GET /api/v1/sessions/:id/assignments
func (h *AssignmentHandler) ListBySession(c *gin.Context) {
	assignments, err := h.assignmentSvc.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": assignments})
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		response.ErrorWithDetails(c, http.StatusConflict, 13002, "存在排班冲突",
			service.FindingsToDTO(conflictErr.Findings))
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12010, "课节不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12005, "用户不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 13001, "指派不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12003, "日期不合法")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 12004, "结束时间必须晚于开始时间")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13003, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
