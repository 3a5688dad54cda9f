package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

type Repository struct {
	// DB can be used for transaction. Example usage:
	// tx := r.DB.Begin()
	// defer tx.Commit()
	// Then pass tx to the repository function. and use tx.Rollback() if error occurred
	DB            *gorm.DB
	GenerationRun *GenerationRunRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger) *baseRepository {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &baseRepository{db: db, logger: logger}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	br := newBaseRepository(db, logger)

	return &Repository{
		DB:            db,
		GenerationRun: &GenerationRunRepository{baseRepository: br},
	}
}

// Docs: https://gorm.io/docs/transactions.html
func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Errorf("withTx Transaction error: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}
