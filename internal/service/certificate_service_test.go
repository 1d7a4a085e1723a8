package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"studytrack/backend/internal/model"
)

// ── Issue ──

func TestCertificateIssue_Success(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	store.addModule("m1", "u1", 4, 4)

	cert, err := svc.Issue(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("Issue 应成功: %v", err)
	}
	if cert.ModuleName != "模块 m1" || cert.UserName != "Alice" || cert.TotalLessons != 4 {
		t.Errorf("证书快照错误: %+v", cert)
	}
	if cert.CompletionDate == "" {
		t.Error("CompletionDate 不应为空")
	}
}

func TestCertificateIssue_ValidationOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(s *mockStore)
		userID  string
		module  string
		wantErr error
		wantMsg string
	}{
		{"缺少用户", func(s *mockStore) {}, "", "m1", nil, "userId is required"},
		{"缺少模块", func(s *mockStore) {}, "u1", "", nil, "moduleId is required"},
		{"模块不存在", func(s *mockStore) { s.addUser("u1", "A", model.ProfileStudent) }, "u1", "m1", ErrCertificateModuleNotFound, ""},
		{"用户不存在", func(s *mockStore) { s.addModule("m1", "u1", 1, 1) }, "u1", "m1", ErrCertificateUserNotFound, ""},
		{"零课时", func(s *mockStore) {
			s.addUser("u1", "A", model.ProfileStudent)
			s.addModule("m1", "u1", 0, 0)
		}, "u1", "m1", ErrCertificateNoLessons, ""},
		{"零课时且已完成课时非零", func(s *mockStore) {
			s.addUser("u1", "A", model.ProfileStudent)
			s.addModule("m1", "u1", 0, 5)
		}, "u1", "m1", ErrCertificateNoLessons, ""},
		{"未完成", func(s *mockStore) {
			s.addUser("u1", "A", model.ProfileStudent)
			s.addModule("m1", "u1", 3, 2)
		}, "u1", "m1", ErrCertificateNotCompleted, ""},
		{"他人模块", func(s *mockStore) {
			s.addUser("u1", "A", model.ProfileStudent)
			s.addModule("m1", "u2", 1, 1)
		}, "u1", "m1", ErrCertificateModuleNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupTestCertificateService()
			tt.setup(store)

			_, err := svc.Issue(ctx, tt.userID, tt.module)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
				}
				return
			}
			assertValidation(t, err, tt.wantMsg)
		})
	}
}

func TestCertificateIssue_AlreadyIssued(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	store.addModule("m1", "u1", 2, 2)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "u1", "m1"); err != nil {
		t.Fatalf("首次 Issue 应成功: %v", err)
	}
	if _, err := svc.Issue(ctx, "u1", "m1"); !errors.Is(err, ErrCertificateAlreadyIssued) {
		t.Errorf("期望 ErrCertificateAlreadyIssued，实际: %v", err)
	}
	if n := store.certs.countFor("u1", "m1"); n != 1 {
		t.Errorf("期望仅 1 张证书，实际: %d", n)
	}
}

func TestCertificateIssue_RacingInsertMapsToAlreadyIssued(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	store.addModule("m1", "u1", 2, 2)
	// 存在性检查通过后唯一索引拦截插入
	store.certs.createErr = gorm.ErrDuplicatedKey

	if _, err := svc.Issue(context.Background(), "u1", "m1"); !errors.Is(err, ErrCertificateAlreadyIssued) {
		t.Errorf("期望 ErrCertificateAlreadyIssued，实际: %v", err)
	}
}

// ── IssueOnCompletion ──

func TestIssueOnCompletion_Idempotent(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	mod := store.addModule("m1", "u1", 2, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.IssueOnCompletion(ctx, mod); err != nil {
			t.Fatalf("第 %d 次 IssueOnCompletion 不应报错: %v", i+1, err)
		}
	}
	if n := store.certs.countFor("u1", "m1"); n != 1 {
		t.Errorf("重复触发后期望仅 1 张证书，实际: %d", n)
	}
}

func TestIssueOnCompletion_DuplicateKeyIsNoop(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	mod := store.addModule("m1", "u1", 2, 2)
	store.certs.createErr = gorm.ErrDuplicatedKey

	cert, err := svc.IssueOnCompletion(context.Background(), mod)
	if err != nil || cert != nil {
		t.Errorf("唯一索引冲突应视为已签发，实际: %v, %v", cert, err)
	}
}

func TestIssueOnCompletion_UnknownUser(t *testing.T) {
	svc, store := setupTestCertificateService()
	mod := store.addModule("m1", "ghost", 1, 1)

	if _, err := svc.IssueOnCompletion(context.Background(), mod); !errors.Is(err, ErrCertificateUserNotFound) {
		t.Errorf("期望 ErrCertificateUserNotFound，实际: %v", err)
	}
}

// ── ListForUser ──

func TestCertificateList_OrderedAndEnriched(t *testing.T) {
	svc, store := setupTestCertificateService()
	mod := store.addModule("m1", "u1", 1, 1)
	desc := "模块描述"
	mod.Description = &desc
	store.addModule("m2", "u1", 1, 1)

	now := time.Now()
	store.certs.certs["old"] = &model.Certificate{CertificateID: "old", UserID: "u1", ModuleID: "m1", CompletionDate: now.Add(-time.Hour)}
	store.certs.certs["new"] = &model.Certificate{CertificateID: "new", UserID: "u1", ModuleID: "m2", CompletionDate: now}
	store.certs.certs["foreign"] = &model.Certificate{CertificateID: "foreign", UserID: "u2", ModuleID: "m2", CompletionDate: now}

	list, err := svc.ListForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListForUser 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 张证书，实际 %d", len(list))
	}
	if list[0].ID != "new" {
		t.Errorf("期望最新证书排在首位，实际 %s", list[0].ID)
	}
	if list[1].ModuleTitle != "模块 m1" || list[1].ModuleDescription != "模块描述" {
		t.Errorf("证书应附带模块标题与描述: %+v", list[1])
	}
}

func TestCertificateList_MissingUser(t *testing.T) {
	svc, _ := setupTestCertificateService()
	_, err := svc.ListForUser(context.Background(), "")
	assertValidation(t, err, "userId is required")
}

// ── Delete ──

func TestCertificateDeleteByID_TriState(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.certs.certs["c1"] = &model.Certificate{CertificateID: "c1", UserID: "u1", ModuleID: "m1"}
	ctx := context.Background()

	res, err := svc.DeleteByID(ctx, "missing", "u1")
	if err != nil || res.Deleted || res.Reason != DeleteReasonNotFound {
		t.Errorf("期望 not_found，实际: %+v, %v", res, err)
	}

	res, err = svc.DeleteByID(ctx, "c1", "u2")
	if err != nil || res.Deleted || res.Reason != DeleteReasonForbidden {
		t.Errorf("期望 forbidden，实际: %+v, %v", res, err)
	}
	if _, ok := store.certs.certs["c1"]; !ok {
		t.Error("forbidden 时不应删除证书")
	}

	res, err = svc.DeleteByID(ctx, "c1", "u1")
	if err != nil || !res.Deleted {
		t.Errorf("期望删除成功，实际: %+v, %v", res, err)
	}
	if _, ok := store.certs.certs["c1"]; ok {
		t.Error("证书应已删除")
	}
}

func TestCertificateDeleteAllForModule(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.certs.certs["c1"] = &model.Certificate{CertificateID: "c1", UserID: "u1", ModuleID: "M"}
	store.certs.certs["c2"] = &model.Certificate{CertificateID: "c2", UserID: "u2", ModuleID: "M"}
	ctx := context.Background()

	n, err := svc.DeleteAllForModule(ctx, "M")
	if err != nil || n != 2 {
		t.Errorf("期望删除 2 张，实际: %d, %v", n, err)
	}

	_, err = svc.DeleteAllForModule(ctx, "")
	assertValidation(t, err, "moduleId is required")
}

// ── Export ──

func TestCertificateExport(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addModule("m1", "u1", 5, 5)
	store.certs.certs["c1"] = &model.Certificate{
		CertificateID: "c1", UserID: "u1", ModuleID: "m1",
		ModuleName: "模块 m1", UserName: "Alice", TotalLessons: 5,
		CompletionDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	buf, filename, err := svc.Export(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Export 应成功: %v", err)
	}
	if filename == "" {
		t.Error("文件名不应为空")
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("生成的 Excel 无法打开: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Certificates")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行数据，实际 %d 行", len(rows))
	}
	if rows[1][1] != "模块 m1" || rows[1][3] != "2026-03-01" || rows[1][4] != "Alice" {
		t.Errorf("数据行错误: %v", rows[1])
	}
}

func TestCertificate_MalformedIDIsNotFound(t *testing.T) {
	svc, store := setupTestCertificateService()
	store.addUser("u1", "Alice", model.ProfileStudent)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "u1", "abc"); !errors.Is(err, ErrCertificateModuleNotFound) {
		t.Errorf("Issue 期望 ErrCertificateModuleNotFound，实际: %v", err)
	}

	res, err := svc.DeleteByID(ctx, "abc", "u1")
	if err != nil || res.Deleted || res.Reason != DeleteReasonNotFound {
		t.Errorf("期望 not_found，实际: %+v, %v", res, err)
	}
}
