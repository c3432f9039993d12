package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
)

// ServiceInterface - doctor CRUD, stats and export
type ServiceInterface interface {
	ListDoctors(ctx context.Context, req model.ListDoctorsRequest) ([]model.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	CreateDoctor(ctx context.Context, req model.CreateDoctorRequest) (*model.Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, req model.UpdateDoctorRequest) (*model.Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	GetStats(ctx context.Context) (*model.Stats, error)
	ExportDoctors(ctx context.Context, req model.ListDoctorsRequest) ([]byte, int, error)
}

// ImportServiceInterface - workbook import
type ImportServiceInterface interface {
	// ImportFile never returns nil. File-level failures are reported through
	// the result's Success flag and Err.
	ImportFile(ctx context.Context, path string) *model.ImportResult
}
