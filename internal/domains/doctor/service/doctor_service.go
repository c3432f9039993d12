package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/repository"
	"github.com/bcmedia-dr/doctor-management-system/pkg/cache"
)

const statsCacheTTL = 60 * time.Second

// DoctorService implements ServiceInterface
type DoctorService struct {
	repo     repository.RepositoryInterface
	cache    cache.Cache
	exporter *Exporter
}

// NewDoctorService - cache may be nil, stats are then always computed.
func NewDoctorService(repo repository.RepositoryInterface, c cache.Cache, exporter *Exporter) ServiceInterface {
	if exporter == nil {
		exporter = NewExporter()
	}
	return &DoctorService{repo: repo, cache: c, exporter: exporter}
}

func filterFrom(req model.ListDoctorsRequest) repository.DoctorFilter {
	req.Normalize()
	return repository.DoctorFilter{
		Search:    req.Search,
		Specialty: req.Specialty,
		Gender:    req.Gender,
		Status:    req.Status,
	}
}

func (s *DoctorService) ListDoctors(ctx context.Context, req model.ListDoctorsRequest) ([]model.Doctor, error) {
	doctors, err := s.repo.List(ctx, filterFrom(req))
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) CreateDoctor(ctx context.Context, req model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := req.ToDoctor()
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	log.Info().Str("doctor_id", d.ID.String()).Msg("doctor created")
	return d, nil
}

func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, req model.UpdateDoctorRequest) (*model.Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(d)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return d, nil
}

func (s *DoctorService) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	log.Info().Str("doctor_id", id.String()).Msg("doctor deleted")
	return nil
}

// GetStats is cache-aside over Redis. Cache errors are logged and the
// stats are computed from the store.
func (s *DoctorService) GetStats(ctx context.Context) (*model.Stats, error) {
	if s.cache != nil {
		var cached model.Stats
		found, err := s.cache.Get(ctx, model.StatsCacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("stats cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	stats := model.NewStats(counts)

	if s.cache != nil {
		if err := s.cache.Set(ctx, model.StatsCacheKey, stats, statsCacheTTL); err != nil {
			log.Warn().Err(err).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

// ExportDoctors returns the workbook bytes and the number of exported rows.
func (s *DoctorService) ExportDoctors(ctx context.Context, req model.ListDoctorsRequest) ([]byte, int, error) {
	doctors, err := s.ListDoctors(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	data, err := s.exporter.Bytes(doctors)
	if err != nil {
		return nil, 0, fmt.Errorf("build export: %w", err)
	}
	return data, len(doctors), nil
}

func (s *DoctorService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, model.StatsCacheKey); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}
