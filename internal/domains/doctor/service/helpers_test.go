package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/repository"
)

// fakeStore is an in-memory ImportStore. Committed rows are visible to
// FindDuplicate, pending ones are not. Emails are unique at commit time.
type fakeStore struct {
	mu      sync.Mutex
	doctors []model.Doctor

	// failInsert and failCommit inject errors. failCommit receives the
	// number of rows in the unit being committed.
	failInsert func(d *model.Doctor) error
	failCommit func(rows int) error

	begins    int
	commits   int
	rollbacks int
}

func (s *fakeStore) FindDuplicate(_ context.Context, name, email string) (*model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doctors {
		d := s.doctors[i]
		if d.Name == name {
			return &d, nil
		}
		if email != "" && strings.EqualFold(model.Deref(d.Email), email) {
			return &d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Begin(_ context.Context) (repository.UnitOfWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return &fakeUnit{store: s}, nil
}

func (s *fakeStore) seed(d model.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ApplyDefaults()
	d.ID = uuid.New()
	s.doctors = append(s.doctors, d)
}

func (s *fakeStore) all() []model.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Doctor(nil), s.doctors...)
}

func (s *fakeStore) byName(name string) (model.Doctor, bool) {
	for _, d := range s.all() {
		if d.Name == name {
			return d, true
		}
	}
	return model.Doctor{}, false
}

type fakeUnit struct {
	store   *fakeStore
	pending []model.Doctor
	done    bool
}

func (u *fakeUnit) Insert(_ context.Context, d *model.Doctor) error {
	if u.done {
		return errors.New("unit already finished")
	}
	if u.store.failInsert != nil {
		if err := u.store.failInsert(d); err != nil {
			return err
		}
	}
	now := time.Now()
	d.ID = uuid.New()
	d.CreatedAt, d.UpdatedAt = now, now
	u.pending = append(u.pending, *d)
	return nil
}

func (u *fakeUnit) Commit(_ context.Context) error {
	if u.done {
		return errors.New("unit already finished")
	}
	if u.store.failCommit != nil {
		if err := u.store.failCommit(len(u.pending)); err != nil {
			return err
		}
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	seen := make(map[string]bool)
	for _, d := range u.store.doctors {
		if e := strings.ToLower(model.Deref(d.Email)); e != "" {
			seen[e] = true
		}
	}
	for _, d := range u.pending {
		e := strings.ToLower(model.Deref(d.Email))
		if e != "" && seen[e] {
			return fmt.Errorf("commit: %w", model.ErrDuplicateDoctor)
		}
		seen[e] = e != ""
	}

	u.store.doctors = append(u.store.doctors, u.pending...)
	u.store.commits++
	u.done = true
	return nil
}

func (u *fakeUnit) Rollback(_ context.Context) error {
	if u.done {
		return nil
	}
	u.store.mu.Lock()
	u.store.rollbacks++
	u.store.mu.Unlock()
	u.pending = nil
	u.done = true
	return nil
}

// MockCache - testify mock of cache.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// writeWorkbook saves rows (header first) into dir/name and returns the path.
func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func strPtr(s string) *string { return &s }

func sampleDoctors() []model.Doctor {
	created := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	return []model.Doctor{
		{
			ID:              uuid.New(),
			Name:            "Wang Da-Ming",
			Email:           strPtr("wang@example.com"),
			Specialty:       strPtr("Internal Medicine"),
			Gender:          strPtr("male"),
			Status:          model.StatusContracted,
			ContactPerson:   strPtr("Ms. Lin"),
			HasSocialMedia:  strPtr("yes"),
			SocialMediaLink: strPtr("https://social.example/wang"),
			CurrentBrand:    strPtr("Brand A"),
			PriceRange:      strPtr("50000-80000"),
			CreatedAt:       created,
			UpdatedAt:       created,
		},
		{
			ID:        uuid.New(),
			Name:      "Li Xiao-Hua",
			Email:     strPtr("li@example.com"),
			Specialty: strPtr("Surgery"),
			Gender:    strPtr("female"),
			Status:    model.StatusNegotiating,
			CreatedAt: created.Add(time.Hour),
			UpdatedAt: created.Add(2 * time.Hour),
		},
		{
			ID:        uuid.New(),
			Name:      "Chen Zhi-Ming",
			Status:    model.StatusNotContacted,
			CreatedAt: created.Add(3 * time.Hour),
			UpdatedAt: created.Add(3 * time.Hour),
		},
	}
}
