package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
	pkgerrors "studytrack/backend/pkg/errors"
	"studytrack/backend/pkg/metrics"
)

// ── 证书模块业务错误 ──

var (
	ErrCertificateModuleNotFound = pkgerrors.Validation("Module not found.")
	ErrCertificateUserNotFound   = pkgerrors.Validation("User not found.")
	ErrCertificateNoLessons      = pkgerrors.Validation("Module must have at least one lesson to award a certificate.")
	ErrCertificateNotCompleted   = pkgerrors.Validation("Module is not completed.")
	ErrCertificateAlreadyIssued  = pkgerrors.Validation("Certificate already issued for this module.")
	ErrExportGenerateFail        = errors.New("生成 Excel 文件失败")
)

// 删除失败原因
const (
	DeleteReasonNotFound  = "not_found"
	DeleteReasonForbidden = "forbidden"
)

// DeleteResult 证书删除结果；失败原因以值返回而非错误，由调用方映射响应
type DeleteResult struct {
	Deleted bool
	Reason  string
}

// CertificateService 证书业务接口
type CertificateService interface {
	// Issue 直接签发：完整资格校验
	Issue(ctx context.Context, userID, moduleID string) (*dto.CertificateResponse, error)
	// IssueOnCompletion 模块完成时自动签发；已存在证书时返回 (nil, nil)
	IssueOnCompletion(ctx context.Context, module *model.Module) (*model.Certificate, error)
	ListForUser(ctx context.Context, userID string) ([]dto.CertificateResponse, error)
	DeleteByID(ctx context.Context, id, userID string) (DeleteResult, error)
	DeleteAllForModule(ctx context.Context, moduleID string) (int64, error)
	// Export 导出证书列表为 Excel
	Export(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type certificateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCertificateService 创建 CertificateService 实例
func NewCertificateService(repo *repository.Repository, logger *zap.Logger) CertificateService {
	return &certificateService{repo: repo, logger: logger}
}

// ────────────────────── Issue ──────────────────────

func (s *certificateService) Issue(ctx context.Context, userID, moduleID string) (*dto.CertificateResponse, error) {
	if err := requireField("userId", userID); err != nil {
		return nil, err
	}
	if err := requireField("moduleId", moduleID); err != nil {
		return nil, err
	}

	module, err := s.repo.Module.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultRejected)
			return nil, ErrCertificateModuleNotFound
		}
		s.logger.Error("查询模块失败", zap.String("module_id", moduleID), zap.Error(err))
		return nil, err
	}
	// 他人的模块视为不存在
	if !model.OwnedBy(module.UserID, userID) {
		metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultRejected)
		return nil, ErrCertificateModuleNotFound
	}

	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCertificateUserNotFound) {
			metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultRejected)
		}
		return nil, err
	}

	if module.TotalLessons <= 0 {
		metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultRejected)
		return nil, ErrCertificateNoLessons
	}
	if module.CompletedLessons != module.TotalLessons {
		metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultRejected)
		return nil, ErrCertificateNotCompleted
	}

	existing, err := s.findExisting(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultDuplicate)
		return nil, ErrCertificateAlreadyIssued
	}

	cert, err := s.create(ctx, user, module)
	if err != nil {
		// 并发插入被唯一索引拦截
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultDuplicate)
			return nil, ErrCertificateAlreadyIssued
		}
		metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultError)
		return nil, err
	}

	metrics.ObserveCertificate(metrics.SourceDirect, metrics.ResultIssued)
	s.logger.Info("证书已签发",
		zap.String("certificate_id", cert.CertificateID),
		zap.String("module_id", moduleID),
		zap.String("user_id", userID))

	resp := toCertificateResponse(cert)
	return &resp, nil
}

// ────────────────────── IssueOnCompletion ──────────────────────

func (s *certificateService) IssueOnCompletion(ctx context.Context, module *model.Module) (*model.Certificate, error) {
	user, err := s.lookupUser(ctx, module.UserID)
	if err != nil {
		metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultError)
		return nil, err
	}

	existing, err := s.findExisting(ctx, module.UserID, module.ModuleID)
	if err != nil {
		metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultError)
		return nil, err
	}
	if existing != nil {
		metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultDuplicate)
		return nil, nil
	}

	cert, err := s.create(ctx, user, module)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultDuplicate)
			return nil, nil
		}
		metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultError)
		return nil, err
	}

	metrics.ObserveCertificate(metrics.SourceAuto, metrics.ResultIssued)
	s.logger.Info("模块完成，自动签发证书",
		zap.String("certificate_id", cert.CertificateID),
		zap.String("module_id", module.ModuleID),
		zap.String("user_id", module.UserID))
	return cert, nil
}

// ────────────────────── ListForUser ──────────────────────

func (s *certificateService) ListForUser(ctx context.Context, userID string) ([]dto.CertificateResponse, error) {
	if err := requireField("userId", userID); err != nil {
		return nil, err
	}

	certs, err := s.repo.Certificate.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询证书列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CertificateResponse, 0, len(certs))
	for i := range certs {
		result = append(result, toCertificateResponse(&certs[i]))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *certificateService) DeleteByID(ctx context.Context, id, userID string) (DeleteResult, error) {
	cert, err := s.repo.Certificate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeleteResult{Reason: DeleteReasonNotFound}, nil
		}
		s.logger.Error("查询证书失败", zap.String("id", id), zap.Error(err))
		return DeleteResult{}, err
	}

	if !model.OwnedBy(cert.UserID, userID) {
		return DeleteResult{Reason: DeleteReasonForbidden}, nil
	}

	if err := s.repo.Certificate.Delete(ctx, id); err != nil {
		s.logger.Error("删除证书失败", zap.String("id", id), zap.Error(err))
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: true}, nil
}

func (s *certificateService) DeleteAllForModule(ctx context.Context, moduleID string) (int64, error) {
	if err := requireField("moduleId", moduleID); err != nil {
		return 0, err
	}

	n, err := s.repo.Certificate.DeleteByModule(ctx, moduleID)
	if err != nil {
		s.logger.Error("批量删除证书失败", zap.String("module_id", moduleID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ═══════════════════════════════════════════════════════════
// Export：导出证书列表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头：证书编号 | 模块 | 课时 | 完成日期 | 持有人
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *certificateService) Export(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	certs, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Certificates"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "B", 32)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 14)
	f.SetColWidth(sheetName, "E", "E", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"Certificate ID", "Module", "Lessons", "Completed On", "Holder"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for _, c := range certs {
		f.SetCellValue(sheetName, cell("A", row), c.ID)
		f.SetCellValue(sheetName, cell("B", row), c.ModuleName)
		f.SetCellValue(sheetName, cell("C", row), c.TotalLessons)
		f.SetCellValue(sheetName, cell("D", row), c.CompletionDate[:10])
		f.SetCellValue(sheetName, cell("E", row), c.UserName)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("certificates_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

// lookupUser 查询证书持有人；不存在时返回 ErrCertificateUserNotFound
func (s *certificateService) lookupUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// findExisting 查询已有证书；不存在时返回 (nil, nil)
func (s *certificateService) findExisting(ctx context.Context, userID, moduleID string) (*model.Certificate, error) {
	cert, err := s.repo.Certificate.GetByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询证书失败", zap.String("user_id", userID), zap.String("module_id", moduleID), zap.Error(err))
		return nil, err
	}
	return cert, nil
}

func (s *certificateService) create(ctx context.Context, user *model.User, module *model.Module) (*model.Certificate, error) {
	cert := &model.Certificate{
		UserID:         user.UserID,
		ModuleID:       module.ModuleID,
		ModuleName:     module.Title,
		UserName:       user.Name,
		TotalLessons:   module.TotalLessons,
		CompletionDate: time.Now(),
	}
	if err := s.repo.Certificate.Create(ctx, cert); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("创建证书失败", zap.String("module_id", module.ModuleID), zap.Error(err))
		}
		return nil, err
	}
	return cert, nil
}

func toCertificateResponse(c *model.Certificate) dto.CertificateResponse {
	resp := dto.CertificateResponse{
		ID:             c.CertificateID,
		UserID:         c.UserID,
		ModuleID:       c.ModuleID,
		ModuleName:     c.ModuleName,
		UserName:       c.UserName,
		TotalLessons:   c.TotalLessons,
		CompletionDate: formatTime(c.CompletionDate),
	}
	if c.Module != nil {
		resp.ModuleTitle = c.Module.Title
		if c.Module.Description != nil {
			resp.ModuleDescription = *c.Module.Description
		}
	}
	return resp
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
