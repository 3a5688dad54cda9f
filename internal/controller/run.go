package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/SeakMengs/AutoCertLMS/internal/auth"
	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	filestorage "github.com/SeakMengs/AutoCertLMS/internal/file_storage"
	"github.com/SeakMengs/AutoCertLMS/internal/mailer"
	"github.com/SeakMengs/AutoCertLMS/internal/model"
	"github.com/SeakMengs/AutoCertLMS/internal/queue"
	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/gin-gonic/gin"
)

const ErrCSVInvalid = "uploaded csv does not match the roster, fix the reported issues or remove it"

type RunController struct {
	*baseController
}

// keyedSink also reports where a written file ends up.
type keyedSink interface {
	autocert.Sink
	Key(name string) string
}

type delivery struct {
	Mode   constant.DeliveryMode `json:"mode"`
	Files  []string              `json:"files,omitempty"`
	Bundle string                `json:"bundle,omitempty"`
	Keys   map[string]string     `json:"-"`
}

type runResponse struct {
	*autocert.GenerationResult
	Delivery delivery `json:"delivery"`
}

func (rc RunController) Generate(ctx *gin.Context) {
	type Request struct {
		Deliver constant.DeliveryMode `json:"deliver" form:"deliver" binding:"omitempty,oneof=none individual bundle"`
	}
	var body Request

	user, s, ok := rc.getOwnedSession(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if body.Deliver == "" {
		body.Deliver = constant.DeliveryNone
	}

	if err := generatePrecondition(s); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Session is not ready for generation", util.GenerateErrorMessages(err, "csvFile"), gin.H{"validation": s.Validation})
		return
	}

	reqCtx := ctx.Request.Context()
	result, err := rc.app.Generator.Generate(reqCtx, autocert.GenerateInput{
		Template: s.Template,
		Mappings: s.Mappings,
		Students: s.Students,
		Rows:     s.Rows(),
	}, func(done, total int) {
		rc.app.Logger.Debugf("Session %s: generated %d/%d", s.ID, done, total)
	})
	if result == nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to generate certificates", util.GenerateErrorMessages(err), nil)
		return
	}
	if err != nil {
		rc.app.Logger.Warnf("Generation of session %s ended early: %v", s.ID, err)
	}

	if err := rc.app.Sessions.SaveRun(s.ID, result); err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to save run", util.GenerateErrorMessages(err), nil)
		return
	}

	d, err := rc.deliver(reqCtx, body.Deliver, result)
	if err != nil {
		rc.app.Logger.Errorf("Failed to deliver run %s: %v", result.ID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to deliver certificates", util.GenerateErrorMessages(err), runResponse{GenerationResult: result, Delivery: d})
		return
	}

	rc.persist(reqCtx, s, result, d)
	rc.notify(user, s, result, d)

	util.ResponseSuccess(ctx, gin.H{"run": runResponse{GenerationResult: result, Delivery: d}})
}

func generatePrecondition(s session.Session) error {
	switch {
	case s.Template == nil:
		return autocert.ErrNoTemplate
	case len(s.Mappings) == 0:
		return autocert.ErrNoFieldMappings
	case !s.CanGenerate():
		return errors.New(ErrCSVInvalid)
	}
	return nil
}

func (rc RunController) sinkFor(runID string) (keyedSink, error) {
	if rc.app.S3 != nil {
		return filestorage.NewMinioSink(rc.app.S3, rc.app.Config.Minio.BUCKET, runID, rc.app.Logger), nil
	}
	return filestorage.NewDirSink(filepath.Join(rc.app.Config.Certificate.OutputDir, runID))
}

func (rc RunController) deliver(ctx context.Context, mode constant.DeliveryMode, result *autocert.GenerationResult) (delivery, error) {
	d := delivery{Mode: mode, Keys: map[string]string{}}
	if mode == constant.DeliveryNone {
		return d, nil
	}

	sink, err := rc.sinkFor(result.ID)
	if err != nil {
		return d, err
	}

	switch mode {
	case constant.DeliveryIndividual:
		d.Files, err = rc.app.Materializer.DeliverIndividually(ctx, result, sink)
		for _, name := range d.Files {
			d.Keys[name] = sink.Key(name)
		}
	case constant.DeliveryBundle:
		d.Bundle, err = rc.app.Materializer.DeliverBundle(ctx, result, sink)
		if d.Bundle != "" {
			d.Keys[d.Bundle] = sink.Key(d.Bundle)
		}
	}

	return d, err
}

// persist records the run when a database is configured. Failures are logged only,
// the in-memory run stays available.
func (rc RunController) persist(ctx context.Context, s session.Session, result *autocert.GenerationResult, d delivery) {
	if !rc.app.HasRepository() {
		return
	}

	run := model.NewGenerationRun(s.ID, s.OwnerID, result)
	run.BundleKey = d.Keys[d.Bundle]
	for i := range run.Certificates {
		c := &run.Certificates[i]
		c.PDFKey = d.Keys[c.FileName+".pdf"]
		c.PNGKey = d.Keys[c.FileName+".png"]
	}

	if _, err := rc.app.Repository.GenerationRun.CreateWithCertificates(ctx, nil, run); err != nil {
		rc.app.Logger.Errorf("Failed to persist run %s: %v", result.ID, err)
	}
}

func (rc RunController) notify(user *auth.JWTPayload, s session.Session, result *autocert.GenerationResult, d delivery) {
	to := rc.app.Config.Mail.NOTIFY_EMAIL
	if to == "" {
		return
	}

	data := mailer.RunSummaryData{
		Username:     user.Name,
		SessionID:    s.ID,
		RunID:        result.ID,
		Total:        result.Total,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
	}
	for _, e := range result.Errors {
		data.Errors = append(data.Errors, mailer.RunSummaryError{StudentName: e.StudentName, Message: e.Message})
	}
	if d.Bundle != "" {
		data.BundleURL = fmt.Sprintf("/api/v1/sessions/%s/runs/%s/bundle", s.ID, result.ID)
	}

	if rc.app.MailQueue != nil {
		job, err := queue.NewRunSummaryMailJob(user.Name, to, data)
		if err == nil {
			err = rc.app.MailQueue.PublishMailJob(job)
		}
		if err != nil {
			rc.app.Logger.Errorf("Failed to queue run summary for %s: %v", result.ID, err)
		}
		return
	}

	if rc.app.Mailer == nil {
		return
	}
	if _, err := rc.app.Mailer.Send(mailer.RUN_SUMMARY_TEMPLATE, user.Name, to, data); err != nil {
		rc.app.Logger.Errorf("Failed to send run summary for %s: %v", result.ID, err)
	}
}

// ListRuns returns the persisted runs of a session, or only the last in-memory run without a database.
func (rc RunController) ListRuns(ctx *gin.Context) {
	_, s, ok := rc.getOwnedSession(ctx)
	if !ok {
		return
	}

	if rc.app.HasRepository() {
		runs, err := rc.app.Repository.GenerationRun.ListBySession(ctx, nil, s.ID)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to list runs", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseSuccess(ctx, gin.H{"runs": runs})
		return
	}

	runs := []*autocert.GenerationResult{}
	if s.LastRunID != "" {
		if r, err := rc.app.Sessions.Run(s.ID, s.LastRunID); err == nil {
			runs = append(runs, r)
		}
	}
	util.ResponseSuccess(ctx, gin.H{"runs": runs})
}

func (rc RunController) getRun(ctx *gin.Context) (*autocert.GenerationResult, bool) {
	_, s, ok := rc.getOwnedSession(ctx)
	if !ok {
		return nil, false
	}

	result, err := rc.app.Sessions.Run(s.ID, ctx.Params.ByName("runId"))
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Run not found", util.GenerateErrorMessages(err, "runId"), nil)
		return nil, false
	}
	return result, true
}

func (rc RunController) GetRunSummary(ctx *gin.Context) {
	result, ok := rc.getRun(ctx)
	if !ok {
		return
	}

	ctx.Data(http.StatusOK, autocert.ContentTypeText, []byte(autocert.Summary(result)))
}

func (rc RunController) DownloadRunBundle(ctx *gin.Context) {
	result, ok := rc.getRun(ctx)
	if !ok {
		return
	}

	data, err := autocert.Bundle(result)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to build bundle", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseFile(ctx, autocert.BundleFileName(result.FinishedAt), autocert.ContentTypeZip, data)
}

func (rc RunController) DownloadRunWorkbook(ctx *gin.Context) {
	result, ok := rc.getRun(ctx)
	if !ok {
		return
	}

	data, err := autocert.SummaryWorkbook(result)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to build summary workbook", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseFile(ctx, "summary.xlsx", autocert.ContentTypeWorkbook, data)
}
