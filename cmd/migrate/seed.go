package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/repository"
	"github.com/bcmedia-dr/doctor-management-system/internal/infrastructure/database"
	pkgdb "github.com/bcmedia-dr/doctor-management-system/pkg/database"
)

func seed(ctx context.Context, cfg *database.DBConfig) error {
	db := database.NewPostgresDB(cfg)
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer db.Close()

	n, err := seedDoctors(ctx, repository.NewPostgresRepository(db.Pool), db.Pool)
	if err != nil {
		return err
	}

	log.Info().Int("inserted", n).Msg("seed finished")
	return nil
}

// seedDoctors inserts sampleDoctors in one transaction, only into an empty table.
func seedDoctors(ctx context.Context, repo repository.RepositoryInterface, db pkgdb.Beginner) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	if count > 0 {
		log.Info().Int("existing", count).Msg("doctors table is not empty, skipping seed")
		return 0, nil
	}

	return pkgdb.WithTransactionResult(ctx, db, func(tx pgx.Tx) (int, error) {
		doctors := sampleDoctors()
		for _, d := range doctors {
			if err := repo.CreateWithTx(ctx, tx, d); err != nil {
				return 0, fmt.Errorf("seed %q: %w", d.Name, err)
			}
		}
		return len(doctors), nil
	})
}

func sampleDoctors() []*model.Doctor {
	reqs := []model.CreateDoctorRequest{
		{
			Name: "Dr. Wang Da-Ming", Email: "wang.daming@example.com", Specialty: "Dermatology",
			Gender: "male", Status: model.StatusContracted, ContactPerson: "Ms. Lin",
			HasSocialMedia: "yes", SocialMediaLink: "https://instagram.com/dr.wang",
			CurrentBrand: "Brand A", PriceRange: "3000-5000",
		},
		{
			Name: "Dr. Li Xiao-Hua", Email: "li.xiaohua@example.com", Specialty: "Plastic Surgery",
			Gender: "female", Status: model.StatusNegotiating, ContactPerson: "Mr. Chen",
			HasSocialMedia: "no", PriceRange: "5000-8000",
		},
		{
			Name: "Dr. Chen Zhi-Ming", Specialty: "Ophthalmology", Gender: "male",
		},
		{
			Name: "Dr. Huang Mei-Ling", Email: "huang.meiling@example.com", Specialty: "Dermatology",
			Gender: "female", Status: model.StatusCooperating, ContactPerson: "Ms. Lin",
			HasSocialMedia: "yes", SocialMediaLink: "https://facebook.com/dr.huang",
			CurrentBrand: "Brand B",
		},
	}

	doctors := make([]*model.Doctor, 0, len(reqs))
	for _, req := range reqs {
		doctors = append(doctors, req.ToDoctor())
	}
	return doctors
}
