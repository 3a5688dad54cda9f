package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/gin-gonic/gin"
)

const ErrCSVFileRequired = "csv file is required"

type CSVController struct {
	*baseController
}

// UploadCSV replaces the session data sheet and returns its validation against the roster.
// An invalid sheet is stored anyway so the caller can inspect the issues.
func (cc CSVController) UploadCSV(ctx *gin.Context) {
	_, s, ok := cc.getOwnedSession(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile(constant.FORM_CSV_FILE)
	if err != nil {
		cc.app.Logger.Debug(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "No csv file uploaded", util.GenerateErrorMessages(errors.New(ErrCSVFileRequired), constant.FORM_CSV_FILE), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to open csv file", util.GenerateErrorMessages(err), nil)
		return
	}
	defer src.Close()

	upload, err := autocert.ParseCSVUpload(file.Filename, file.Size, src)
	if err != nil {
		cc.app.Logger.Debugf("Failed to parse csv %s: %v", file.Filename, err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid csv file", util.GenerateErrorMessages(err, constant.FORM_CSV_FILE), nil)
		return
	}

	validation, err := cc.app.Sessions.SetCSV(s.ID, upload)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to store csv", util.GenerateErrorMessages(err), nil)
		return
	}

	updated, err := cc.app.Sessions.Get(s.ID)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to store csv", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"validation": validation,
		"session":    toSessionResponse(updated),
	})
}

func (cc CSVController) RemoveCSV(ctx *gin.Context) {
	_, s, ok := cc.getOwnedSession(ctx)
	if !ok {
		return
	}

	updated, err := cc.app.Sessions.ClearCSV(s.ID)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to remove csv", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(updated)})
}
