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

// SwapHandler 换班模块 HTTP 处理器
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler 创建 SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// RequestSwap 发起换班申请
// POST /api/v1/swap-requests
func (h *SwapHandler) RequestSwap(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.RequestSwap(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.Created(c, swap)
}

// RespondSwap 目标带教员接受/拒绝换班
// POST /api/v1/swap-requests/:id/respond
func (h *SwapHandler) RespondSwap(c *gin.Context) {
	var req dto.RespondSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.RespondSwap(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// GetSwap 换班申请详情（仅参与双方可见）
// GET /api/v1/swap-requests/:id
func (h *SwapHandler) GetSwap(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.GetSwap(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// ListMySwaps 我参与的换班申请
// GET /api/v1/swap-requests
func (h *SwapHandler) ListMySwaps(c *gin.Context) {
	var req dto.SwapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swaps, total, err := h.swapSvc.ListMySwaps(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OKPage(c, swaps, total, req.GetPage(), req.GetPageSize())
}

func (h *SwapHandler) handleSwapError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		response.ErrorWithDetails(c, http.StatusConflict, 15002, "对方在该时段不可用",
			service.FindingsToDTO(conflictErr.Findings))
		return
	}

	switch {
	case errors.Is(err, service.ErrSwapNotFound):
		response.NotFound(c, 15001, "换班申请不存在")
	case errors.Is(err, service.ErrSwapNotOwner):
		response.Forbidden(c, 15003, "只能为自己的指派发起换班")
	case errors.Is(err, service.ErrSwapSessionPast):
		response.BadRequest(c, 15004, "课节已结束，不可换班")
	case errors.Is(err, service.ErrSwapNotDiscussed):
		response.BadRequest(c, 15005, "发起换班前请先与对方沟通并确认")
	case errors.Is(err, service.ErrSwapTargetNotMember):
		response.BadRequest(c, 15006, "对方不是此单元的成员")
	case errors.Is(err, service.ErrSwapNoop):
		response.BadRequest(c, 15007, "换班双方相同，无需换班")
	case errors.Is(err, service.ErrSwapTargetAssigned):
		response.Conflict(c, 15011, "对方已被指派到此课节")
	case errors.Is(err, service.ErrSwapNotTarget):
		response.Forbidden(c, 15008, "只有被指向的带教员可以响应此申请")
	case errors.Is(err, service.ErrSwapNotPending):
		response.Conflict(c, 15009, "换班申请已处理")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 13001, "指派不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15010, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
