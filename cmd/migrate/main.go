package main

import (
	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/database"
	"github.com/SeakMengs/AutoCertLMS/internal/env"
	"github.com/SeakMengs/AutoCertLMS/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv(".env")
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: host=%s port=%s database=%s", cfg.DB.DB_HOST, cfg.DB.DB_PORT, cfg.DB.DB_DATABASE)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(&model.GenerationRun{}, &model.GeneratedCertificate{})
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	logger.Info("Migration completed")
}
