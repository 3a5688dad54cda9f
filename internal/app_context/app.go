package appcontext

import (
	"github.com/SeakMengs/AutoCertLMS/internal/auth"
	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/mailer"
	"github.com/SeakMengs/AutoCertLMS/internal/queue"
	"github.com/SeakMengs/AutoCertLMS/internal/repository"
	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/student"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository persists generation runs. Nil when no database is configured.
	Repository *repository.Repository

	// Mailer handles email-sending functions.
	Mailer mailer.Client

	// MailQueue defers mails to the mail consumer. Nil sends through Mailer inline.
	MailQueue queue.MailPublisher

	// JWTService verifies the LMS issued tokens.
	JWTService auth.JWTInterface

	// S3 is nil when minio is not configured, artifacts then go to the local output dir.
	S3 *minio.Client

	Sessions *session.Store
	Students student.Directory

	Templates    *autocert.TemplateLoader
	Generator    *autocert.Generator
	Materializer *autocert.Materializer
}

func (app *Application) HasRepository() bool {
	return app.Repository != nil
}
