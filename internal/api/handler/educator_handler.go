package handler

import (
	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/service"
	"studytrack/backend/pkg/response"
)

// EducatorHandler 教师端 HTTP 处理器
type EducatorHandler struct {
	userSvc service.UserService
}

// NewEducatorHandler 创建 EducatorHandler
func NewEducatorHandler(userSvc service.UserService) *EducatorHandler {
	return &EducatorHandler{userSvc: userSvc}
}

// ListStudents 学生名单（分页）
// GET /api/v1/educator/students?page=1&page_size=20&keyword=
func (h *EducatorHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid query parameters")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	students, total, err := h.userSvc.ListStudents(c.Request.Context(), callerID, &req)
	if err != nil {
		writeDomainError(c, err, 15002, 15001, 15003)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}
