package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/gin-gonic/gin"
)

const ErrTemplateFileRequired = "template file is required"

type TemplateController struct {
	*baseController
}

// UploadTemplate replaces the session template. Existing field mappings are cleared.
func (tc TemplateController) UploadTemplate(ctx *gin.Context) {
	_, s, ok := tc.getOwnedSession(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile(constant.FORM_TEMPLATE_FILE)
	if err != nil {
		tc.app.Logger.Debug(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "No template file uploaded", util.GenerateErrorMessages(errors.New(ErrTemplateFileRequired), constant.FORM_TEMPLATE_FILE), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to open template file", util.GenerateErrorMessages(err), nil)
		return
	}
	defer src.Close()

	tpl, err := tc.app.Templates.Load(ctx.Request.Context(), file.Filename, file.Size, src)
	if err != nil {
		tc.app.Logger.Debugf("Failed to load template %s: %v", file.Filename, err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template file", util.GenerateErrorMessages(err, constant.FORM_TEMPLATE_FILE), nil)
		return
	}

	updated, err := tc.app.Sessions.SetTemplate(s.ID, tpl)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to set template", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(updated)})
}

func (tc TemplateController) RemoveTemplate(ctx *gin.Context) {
	_, s, ok := tc.getOwnedSession(ctx)
	if !ok {
		return
	}

	updated, err := tc.app.Sessions.RemoveTemplate(s.ID)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to remove template", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(updated)})
}
