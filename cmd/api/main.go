package main

import (
	appcontext "github.com/SeakMengs/AutoCertLMS/internal/app_context"
	"github.com/SeakMengs/AutoCertLMS/internal/auth"
	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/database"
	"github.com/SeakMengs/AutoCertLMS/internal/env"
	filestorage "github.com/SeakMengs/AutoCertLMS/internal/file_storage"
	"github.com/SeakMengs/AutoCertLMS/internal/mailer"
	"github.com/SeakMengs/AutoCertLMS/internal/queue"
	ratelimiter "github.com/SeakMengs/AutoCertLMS/internal/rate_limiter"
	"github.com/SeakMengs/AutoCertLMS/internal/repository"
	"github.com/SeakMengs/AutoCertLMS/internal/route"
	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/student"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	defer logger.Sync()
	logger.Debugf("Configuration: %+v \n", cfg)

	var repo *repository.Repository
	if cfg.DB.Enabled() {
		db, err := database.ConnectReturnGormDB(cfg.DB)
		if err != nil {
			logger.Panic(err)
		}

		sqlDb, err := db.DB()
		if err != nil {
			logger.Panic(err)
		}
		defer sqlDb.Close()
		logger.Info("Database connected \n")

		repo = repository.NewRepository(db, logger)
	} else {
		logger.Warn("DB_HOST is empty, generation runs will not be persisted")
	}

	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger),
		JWTService: auth.NewJwt(cfg.Auth, logger),
		Sessions:   session.NewStore(logger),
	}

	if cfg.Minio.Enabled() {
		s3, err := filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}
		app.S3 = s3
	} else {
		logger.Infof("MINIO_ENDPOINT is empty, artifacts are written to %s", cfg.Certificate.OutputDir)
	}

	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Panic("Error connecting to RabbitMQ: ", err)
		}
		defer rabbitMQ.Close()
		logger.Info("RabbitMQ connected \n")
		app.MailQueue = rabbitMQ
	}

	var cache student.Cache
	if cfg.Redis.Enabled() {
		redisCache, err := student.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Panic(err)
		}
		defer redisCache.Close()
		cache = redisCache
	}
	app.Students = student.NewClient(cfg.StudentService, cache, logger)

	fonts, err := autocert.NewFontLoader(cfg.Certificate.FontMetadataPath, logger)
	if err != nil {
		logger.Panic(err)
	}

	engine := cfg.Certificate.Engine()
	engine.Logger = logger
	app.Templates = autocert.NewTemplateLoader(nil, logger)
	app.Generator = autocert.NewGenerator(autocert.NewCertificateBuilder(fonts, engine), engine)
	app.Materializer = autocert.NewMaterializer(engine)

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidations(v); err != nil {
			logger.Panicf("Failed to register custom validations: %v", err)
		}
	}

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := route.NewRouter(&app, ratelimiter.NewRateLimiter(cfg.RateLimiter, logger))

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v \n", err)
	}
}
