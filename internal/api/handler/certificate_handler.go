package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/service"
	"studytrack/backend/pkg/response"
)

// CertificateHandler 证书模块 HTTP 处理器
type CertificateHandler struct {
	certSvc service.CertificateService
}

// NewCertificateHandler 创建 CertificateHandler
func NewCertificateHandler(certSvc service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certSvc: certSvc}
}

// ListCertificates 当前用户的证书（最近完成在前）
// GET /api/v1/certificates
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	certs, err := h.certSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.handleCertificateError(c, err)
		return
	}

	response.OK(c, gin.H{"list": certs})
}

// IssueCertificate 直接签发证书
// POST /api/v1/certificates
func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	var req dto.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cert, err := h.certSvc.Issue(c.Request.Context(), userID, req.ModuleID)
	if err != nil {
		h.handleCertificateError(c, err)
		return
	}

	response.Created(c, cert)
}

// DeleteCertificate 删除证书
// DELETE /api/v1/certificates/:id
func (h *CertificateHandler) DeleteCertificate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.certSvc.DeleteByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleCertificateError(c, err)
		return
	}

	switch {
	case result.Deleted:
		response.OK(c, nil)
	case result.Reason == service.DeleteReasonForbidden:
		response.Forbidden(c, 13003, "You are not allowed to delete this certificate.")
	default:
		response.NotFound(c, 13001, "Certificate not found.")
	}
}

// ExportCertificates 导出证书列表为 Excel
// GET /api/v1/certificates/export
func (h *CertificateHandler) ExportCertificates(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.certSvc.Export(c.Request.Context(), userID)
	if err != nil {
		h.handleCertificateError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// handleCertificateError 统一处理证书模块业务错误
func (h *CertificateHandler) handleCertificateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCertificateAlreadyIssued):
		response.Error(c, http.StatusBadRequest, 13002, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		writeDomainError(c, err, 13004, 13001, 13003)
	}
}
