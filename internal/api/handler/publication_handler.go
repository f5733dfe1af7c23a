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

// PublicationHandler 发布状态机 HTTP 处理器
type PublicationHandler struct {
	publicationSvc service.PublicationService
}

// NewPublicationHandler 创建 PublicationHandler
func NewPublicationHandler(publicationSvc service.PublicationService) *PublicationHandler {
	return &PublicationHandler{publicationSvc: publicationSvc}
}

// Publish 发布排班
// POST /api/v1/units/:id/publish
func (h *PublicationHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.publicationSvc.Publish(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePublicationError(c, err)
		return
	}

	response.OK(c, result)
}

// Unpublish 撤回发布
// POST /api/v1/units/:id/unpublish
func (h *PublicationHandler) Unpublish(c *gin.Context) {
	var req dto.UnpublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.publicationSvc.Unpublish(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePublicationError(c, err)
		return
	}

	response.OK(c, result)
}

// Republish 撤回后重新发布
// POST /api/v1/units/:id/republish
func (h *PublicationHandler) Republish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.publicationSvc.Republish(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePublicationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *PublicationHandler) handlePublicationError(c *gin.Context, err error) {
	var blocked *service.UnpublishBlockedError
	if errors.As(err, &blocked) {
		response.ErrorWithDetails(c, http.StatusConflict, 14003, blocked.Error(), gin.H{
			"upcoming_sessions": blocked.UpcomingSessions,
			"window_days":       blocked.WindowDays,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 12001, "单元不存在")
	case errors.Is(err, service.ErrNotPublished):
		response.Conflict(c, 14002, "排班未发布")
	case errors.Is(err, service.ErrUnitEnded):
		response.Conflict(c, 14005, "单元已结束，不可撤回发布")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14006, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
