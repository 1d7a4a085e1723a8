package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"studytrack/backend/internal/dto"
	"studytrack/backend/internal/model"
	pkgerrors "studytrack/backend/pkg/errors"
)

func setupTestUserService() (UserService, *mockStore) {
	store := newMockStore()
	return NewUserService(store.repo, zap.NewNop()), store
}

func TestListStudents_Educator(t *testing.T) {
	svc, store := setupTestUserService()
	store.addUser("t1", "Teacher", model.ProfileEducator)
	store.addUser("s1", "Bob", model.ProfileStudent)
	store.addUser("s2", "Alice", model.ProfileStudent)
	store.addUser("s3", "Carol", model.ProfileStudent)

	list, total, err := svc.ListStudents(context.Background(), "t1", &dto.StudentListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("ListStudents 应成功: %v", err)
	}
	if total != 3 {
		t.Errorf("期望总数 3，实际 %d", total)
	}
	if len(list) != 2 || list[0].Name != "Alice" {
		t.Errorf("期望按姓名分页，实际: %+v", list)
	}
	for _, u := range list {
		if u.ProfileType != "student" {
			t.Errorf("名单中不应包含非学生: %+v", u)
		}
	}
}

func TestListStudents_Keyword(t *testing.T) {
	svc, store := setupTestUserService()
	store.addUser("t1", "Teacher", model.ProfileEducator)
	store.addUser("s1", "Bob", model.ProfileStudent)
	store.addUser("s2", "Alice", model.ProfileStudent)

	list, total, err := svc.ListStudents(context.Background(), "t1", &dto.StudentListRequest{Keyword: "Bob"})
	if err != nil {
		t.Fatalf("ListStudents 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != "s1" {
		t.Errorf("关键字过滤错误: %+v", list)
	}
}

func TestListStudents_StudentForbidden(t *testing.T) {
	svc, store := setupTestUserService()
	store.addUser("s1", "Bob", model.ProfileStudent)

	_, _, err := svc.ListStudents(context.Background(), "s1", &dto.StudentListRequest{})
	if !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
}

func TestListStudents_UnknownCaller(t *testing.T) {
	svc, _ := setupTestUserService()

	_, _, err := svc.ListStudents(context.Background(), "ghost", &dto.StudentListRequest{})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
