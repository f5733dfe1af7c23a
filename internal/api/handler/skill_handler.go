package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-roster/backend/internal/dto"
	"campus-roster/backend/internal/service"
	"campus-roster/backend/pkg/response"
)

// SkillHandler 技能模块 HTTP 处理器
type SkillHandler struct {
	skillSvc service.SkillService
}

// NewSkillHandler 创建 SkillHandler
func NewSkillHandler(skillSvc service.SkillService) *SkillHandler {
	return &SkillHandler{skillSvc: skillSvc}
}

// GetUnitSkills 当前用户在某单元全部模块上的技能等级
// GET /api/v1/units/:id/skills
func (h *SkillHandler) GetUnitSkills(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	skills, err := h.skillSvc.GetUnitSkills(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleSkillError(c, err)
		return
	}

	response.OK(c, skills)
}

// UpsertSkills 批量维护技能等级
// PUT /api/v1/skills
func (h *SkillHandler) UpsertSkills(c *gin.Context) {
	var req dto.UpsertSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	skills, err := h.skillSvc.UpsertSkills(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleSkillError(c, err)
		return
	}

	response.OK(c, skills)
}

func (h *SkillHandler) handleSkillError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 12009, "教学模块不存在")
	case errors.Is(err, service.ErrInvalidSkillLevel):
		response.BadRequest(c, 17001, "无效的技能等级")
	default:
		response.InternalError(c)
	}
}
