package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

var errMockStorage = errors.New("mock storage failure")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ListByProfileType(_ context.Context, profileType model.ProfileType, keyword string, offset, limit int) ([]model.User, int64, error) {
	var matched []model.User
	for _, u := range m.users {
		if u.ProfileType != profileType {
			continue
		}
		if keyword != "" && !strings.Contains(u.Name, keyword) && !strings.Contains(u.Email, keyword) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── Mock ModuleRepository ──

type mockModuleRepo struct {
	modules   map[string]*model.Module
	updateErr error
}

func newMockModuleRepo() *mockModuleRepo {
	return &mockModuleRepo{modules: make(map[string]*model.Module)}
}

func (m *mockModuleRepo) Create(_ context.Context, module *model.Module) error {
	if module.ModuleID == "" {
		module.ModuleID = fmt.Sprintf("module-%d", len(m.modules)+1)
	}
	m.modules[module.ModuleID] = module
	return nil
}

func (m *mockModuleRepo) GetByID(_ context.Context, id string) (*model.Module, error) {
	if mod, ok := m.modules[id]; ok {
		// 返回副本，模拟数据库读取
		cp := *mod
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModuleRepo) ListByUser(_ context.Context, userID string) ([]model.Module, error) {
	var result []model.Module
	for _, mod := range m.modules {
		if mod.UserID == userID {
			result = append(result, *mod)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModuleID < result[j].ModuleID })
	return result, nil
}

func (m *mockModuleRepo) Update(_ context.Context, module *model.Module) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *module
	m.modules[module.ModuleID] = &cp
	return nil
}

func (m *mockModuleRepo) Delete(_ context.Context, id string) error {
	delete(m.modules, id)
	return nil
}

func (m *mockModuleRepo) CountOwned(_ context.Context, userID string, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if mod, ok := m.modules[id]; ok && mod.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ── Mock CertificateRepository ──

type mockCertificateRepo struct {
	certs     map[string]*model.Certificate
	modules   *mockModuleRepo // 用于 ListByUser 预加载
	createErr error
	seq       int
}

func newMockCertificateRepo(modules *mockModuleRepo) *mockCertificateRepo {
	return &mockCertificateRepo{certs: make(map[string]*model.Certificate), modules: modules}
}

func (m *mockCertificateRepo) Create(_ context.Context, cert *model.Certificate) error {
	if m.createErr != nil {
		return m.createErr
	}
	// 模拟 (user_id, module_id) 唯一索引
	for _, c := range m.certs {
		if c.UserID == cert.UserID && c.ModuleID == cert.ModuleID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if cert.CertificateID == "" {
		cert.CertificateID = fmt.Sprintf("cert-%d", m.seq)
	}
	m.certs[cert.CertificateID] = cert
	return nil
}

func (m *mockCertificateRepo) GetByID(_ context.Context, id string) (*model.Certificate, error) {
	if c, ok := m.certs[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) GetByUserAndModule(_ context.Context, userID, moduleID string) (*model.Certificate, error) {
	for _, c := range m.certs {
		if c.UserID == userID && c.ModuleID == moduleID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) ListByUser(_ context.Context, userID string) ([]model.Certificate, error) {
	var result []model.Certificate
	for _, c := range m.certs {
		if c.UserID != userID {
			continue
		}
		cp := *c
		if mod, ok := m.modules.modules[c.ModuleID]; ok {
			modCopy := *mod
			cp.Module = &modCopy
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CompletionDate.After(result[j].CompletionDate) })
	return result, nil
}

func (m *mockCertificateRepo) Delete(_ context.Context, id string) error {
	delete(m.certs, id)
	return nil
}

func (m *mockCertificateRepo) DeleteByModule(_ context.Context, moduleID string) (int64, error) {
	var n int64
	for id, c := range m.certs {
		if c.ModuleID == moduleID {
			delete(m.certs, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCertificateRepo) countFor(userID, moduleID string) int {
	n := 0
	for _, c := range m.certs {
		if c.UserID == userID && c.ModuleID == moduleID {
			n++
		}
	}
	return n
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) numberTaken(userID string, number int, exceptID string) bool {
	for _, s := range m.semesters {
		if s.UserID == userID && s.Number == number && s.SemesterID != exceptID {
			return true
		}
	}
	return false
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	// 模拟 (user_id, number) 唯一索引
	if m.numberTaken(semester.UserID, semester.Number, "") {
		return gorm.ErrDuplicatedKey
	}
	if semester.SemesterID == "" {
		semester.SemesterID = fmt.Sprintf("sem-%s-%d", semester.UserID, semester.Number)
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) ListByUser(_ context.Context, userID string) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	if m.numberTaken(semester.UserID, semester.Number, semester.SemesterID) {
		return gorm.ErrDuplicatedKey
	}
	cp := *semester
	m.semesters[semester.SemesterID] = &cp
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string) error {
	delete(m.semesters, id)
	return nil
}

// ── 测试辅助 ──

// mockStore 聚合全部 mock，便于断言底层状态
type mockStore struct {
	users     *mockUserRepo
	modules   *mockModuleRepo
	certs     *mockCertificateRepo
	semesters *mockSemesterRepo
	repo      *repository.Repository
}

func newMockStore() *mockStore {
	users := newMockUserRepo()
	modules := newMockModuleRepo()
	certs := newMockCertificateRepo(modules)
	semesters := newMockSemesterRepo()
	return &mockStore{
		users:     users,
		modules:   modules,
		certs:     certs,
		semesters: semesters,
		repo: &repository.Repository{
			User:        users,
			Module:      modules,
			Certificate: certs,
			Semester:    semesters,
		},
	}
}

func (s *mockStore) addUser(id, name string, profile model.ProfileType) *model.User {
	u := &model.User{
		UserID:      id,
		Name:        name,
		Email:       id + "@test.com",
		ProfileType: profile,
	}
	s.users.users[id] = u
	return u
}

func (s *mockStore) addModule(id, userID string, total, completed int) *model.Module {
	mod := &model.Module{
		ModuleID:         id,
		UserID:           userID,
		Title:            "模块 " + id,
		TotalLessons:     total,
		CompletedLessons: completed,
	}
	s.modules.modules[id] = mod
	return mod
}

func (s *mockStore) module(id string) *model.Module {
	return s.modules.modules[id]
}

func setupTestModuleService() (ModuleService, *mockStore) {
	store := newMockStore()
	logger := zap.NewNop()
	certs := NewCertificateService(store.repo, logger)
	return NewModuleService(store.repo, certs, logger), store
}

func setupTestCertificateService() (CertificateService, *mockStore) {
	store := newMockStore()
	return NewCertificateService(store.repo, zap.NewNop()), store
}

func setupTestSemesterService() (SemesterService, *mockStore) {
	store := newMockStore()
	return NewSemesterService(store.repo, zap.NewNop()), store
}
