package repository

import (
	"context"

	constant "github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/SeakMengs/AutoCertLMS/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GenerationRunRepository struct {
	*baseRepository
}

// CreateWithCertificates stores the run and all of its certificate rows atomically.
func (grr GenerationRunRepository) CreateWithCertificates(ctx context.Context, tx *gorm.DB, run *model.GenerationRun) (*model.GenerationRun, error) {
	grr.logger.Debugf("Create generation run: %s with %d certificates", run.ID, len(run.Certificates))

	db := grr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	certificates := run.Certificates
	run.Certificates = nil

	err := grr.withTx(db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Model(&model.GenerationRun{}).Create(run).Error; err != nil {
			return err
		}

		if len(certificates) == 0 {
			return nil
		}

		for i := range certificates {
			certificates[i].RunID = run.ID
		}

		silentTx := tx.Session(&gorm.Session{
			Logger: tx.Logger.LogMode(logger.Silent),
		})
		return silentTx.Model(&model.GeneratedCertificate{}).Create(&certificates).Error
	})

	run.Certificates = certificates
	if err != nil {
		return run, err
	}

	return run, nil
}

func (grr GenerationRunRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.GenerationRun, error) {
	grr.logger.Debugf("Get generation run by id: %s", id)

	db := grr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var run model.GenerationRun
	if err := db.WithContext(ctx).Model(&model.GenerationRun{}).Where(model.GenerationRun{
		BaseModel: model.BaseModel{
			ID: id,
		},
	}).Preload("Certificates", func(db *gorm.DB) *gorm.DB {
		return db.Order("file_name asc")
	}).First(&run).Error; err != nil {
		return &run, err
	}

	return &run, nil
}

// ListBySession returns the runs of a session, newest first, without certificate rows.
func (grr GenerationRunRepository) ListBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*model.GenerationRun, error) {
	grr.logger.Debugf("List generation runs by session id: %s", sessionID)

	db := grr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var runs []*model.GenerationRun
	if err := db.WithContext(ctx).Model(&model.GenerationRun{}).Where(model.GenerationRun{
		SessionID: sessionID,
	}).Order("started_at desc").Find(&runs).Error; err != nil {
		return runs, err
	}

	return runs, nil
}
