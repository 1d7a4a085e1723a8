//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

// TestMain 默认使用内存 SQLite；设置 TEST_DATABASE_DSN 时连接 PostgreSQL
func TestMain(m *testing.M) {
	var dialector gorm.Dialector
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open("file::memory:?cache=shared")
	}

	var err error
	testDB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}
	if testDB.Dialector.Name() == "sqlite" {
		// 内存库单连接，避免共享缓存下的表锁
		sqlDB, _ := testDB.DB()
		sqlDB.SetMaxOpenConns(1)
	}

	err = testDB.AutoMigrate(
		&model.User{},
		&model.Module{},
		&model.Certificate{},
		&model.Semester{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建用户与一个 3 课时模块，返回清理函数
func setupTestData(t *testing.T) (user *model.User, module *model.Module, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	user = &model.User{
		Name:         "测试用户",
		Email:        fmt.Sprintf("user%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hash",
		ProfileType:  model.ProfileStudent,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	module = &model.Module{
		UserID:       user.UserID,
		Title:        "Go 并发编程",
		TotalLessons: 3,
	}
	if err := testDB.WithContext(ctx).Create(module).Error; err != nil {
		t.Fatalf("创建模块失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Certificate{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Semester{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Module{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return user, module, cleanup
}

func newCertificate(user *model.User, module *model.Module, completedAt time.Time) *model.Certificate {
	return &model.Certificate{
		UserID:         user.UserID,
		ModuleID:       module.ModuleID,
		ModuleName:     module.Title,
		UserName:       user.Name,
		TotalLessons:   module.TotalLessons,
		CompletionDate: completedAt,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	user, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	m := &model.Module{UserID: user.UserID, Title: "回滚模块", TotalLessons: 1}
	if err := txRepo.Module.Create(ctx, m); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建 Module 失败: %v", err)
	}

	tx.Rollback()

	if _, err := repo.Module.GetByID(ctx, m.ModuleID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望回滚后查不到 Module，实际: %v", err)
	}
}

func TestTransaction_CascadeDeleteCommit(t *testing.T) {
	user, module, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Certificate.Create(ctx, newCertificate(user, module, time.Now())); err != nil {
		t.Fatalf("创建证书失败: %v", err)
	}

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	n, err := txRepo.Certificate.DeleteByModule(ctx, module.ModuleID)
	if err != nil {
		tx.Rollback()
		t.Fatalf("DeleteByModule 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望删除 1 张证书，实际: %d", n)
	}
	if err := txRepo.Module.Delete(ctx, module.ModuleID); err != nil {
		tx.Rollback()
		t.Fatalf("删除模块失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	if _, err := repo.Module.GetByID(ctx, module.ModuleID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("提交后模块应不存在，实际: %v", err)
	}
	if _, err := repo.Certificate.GetByUserAndModule(ctx, user.UserID, module.ModuleID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("提交后证书应不存在，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Unique Indexes
// ═══════════════════════════════════════════════════════════

func TestCertificate_UniquePerUserModule(t *testing.T) {
	user, module, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Certificate.Create(ctx, newCertificate(user, module, time.Now())); err != nil {
		t.Fatalf("首次创建证书失败: %v", err)
	}
	err := repo.Certificate.Create(ctx, newCertificate(user, module, time.Now()))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 ErrDuplicatedKey，实际: %v", err)
	}
}

func TestSemester_UniqueNumberPerUser(t *testing.T) {
	user, module, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	first := &model.Semester{UserID: user.UserID, Number: 1, StartDate: start, EndDate: end,
		Modules: model.StringArray{module.ModuleID}}
	if err := repo.Semester.Create(ctx, first); err != nil {
		t.Fatalf("创建学期失败: %v", err)
	}

	dup := &model.Semester{UserID: user.UserID, Number: 1, StartDate: start, EndDate: end}
	if err := repo.Semester.Create(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 ErrDuplicatedKey，实际: %v", err)
	}

	found, err := repo.Semester.GetByID(ctx, first.SemesterID)
	if err != nil {
		t.Fatalf("查询学期失败: %v", err)
	}
	if len(found.Modules) != 1 || found.Modules[0] != module.ModuleID {
		t.Errorf("模块列表未正确持久化: %v", found.Modules)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Queries
// ═══════════════════════════════════════════════════════════

func TestCertificate_ListByUserOrderedWithModule(t *testing.T) {
	user, module, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	second := &model.Module{UserID: user.UserID, Title: "数据库原理", TotalLessons: 2}
	if err := repo.Module.Create(ctx, second); err != nil {
		t.Fatalf("创建模块失败: %v", err)
	}

	older := time.Now().Add(-48 * time.Hour)
	if err := repo.Certificate.Create(ctx, newCertificate(user, module, older)); err != nil {
		t.Fatalf("创建证书失败: %v", err)
	}
	if err := repo.Certificate.Create(ctx, newCertificate(user, second, time.Now())); err != nil {
		t.Fatalf("创建证书失败: %v", err)
	}

	certs, err := repo.Certificate.ListByUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("ListByUser 失败: %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("期望 2 张证书，实际: %d", len(certs))
	}
	if certs[0].ModuleID != second.ModuleID {
		t.Errorf("期望最新证书排在首位")
	}
	if certs[0].Module == nil || certs[0].Module.Title != "数据库原理" {
		t.Errorf("期望预加载模块标题")
	}
}

func TestModule_CountOwned(t *testing.T) {
	user, module, cleanup := setupTestData(t)
	defer cleanup()
	other, otherModule, otherCleanup := setupTestData(t)
	defer otherCleanup()
	_ = other

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	n, err := repo.Module.CountOwned(ctx, user.UserID, []string{module.ModuleID, otherModule.ModuleID})
	if err != nil {
		t.Fatalf("CountOwned 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望仅统计到 1 个自有模块，实际: %d", n)
	}
}
