package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/service"
	pkgerrors "studytrack/backend/pkg/errors"
	"studytrack/backend/pkg/response"
)

// ModuleHandler 学习模块 HTTP 处理器
type ModuleHandler struct {
	moduleSvc service.ModuleService
}

// NewModuleHandler 创建 ModuleHandler
func NewModuleHandler(moduleSvc service.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleSvc: moduleSvc}
}

// ListModules 当前用户的模块列表
// GET /api/v1/modules
func (h *ModuleHandler) ListModules(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	modules, err := h.moduleSvc.List(c.Request.Context(), userID)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": modules})
}

// GetModule 模块详情
// GET /api/v1/modules/:id
func (h *ModuleHandler) GetModule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	module, err := h.moduleSvc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, module)
}

// CreateModule 创建模块
// POST /api/v1/modules
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req dto.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	module, err := h.moduleSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.Created(c, module)
}

// UpdateModule 部分更新模块
// PUT /api/v1/modules/:id
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	var req dto.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.moduleSvc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, result.Response())
}

// AdjustLessons 增减已完成课时
// PATCH /api/v1/modules/:id/lessons
func (h *ModuleHandler) AdjustLessons(c *gin.Context) {
	var req dto.AdjustLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.moduleSvc.AdjustLessons(c.Request.Context(), c.Param("id"), userID, req.Increment)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, result.Response())
}

// DeleteModule 删除模块及其证书
// DELETE /api/v1/modules/:id
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.moduleSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportCalendar 导出模块截止日期日历
// GET /api/v1/modules/calendar.ics
func (h *ModuleHandler) ExportCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cal, err := h.moduleSvc.ExportDeadlines(c.Request.Context(), userID)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=studytrack-deadlines.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal))
}

// handleModuleError 统一处理学习模块业务错误
func (h *ModuleHandler) handleModuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrModuleNegativeLesson):
		response.BadRequest(c, 12003, err.Error())
	case pkgerrors.IsValidation(err):
		response.BadRequest(c, 12002, err.Error())
	default:
		writeDomainError(c, err, 12002, 12001, 12004)
	}
}
