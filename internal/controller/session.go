package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/student"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/gin-gonic/gin"
)

type SessionController struct {
	*baseController
}

type sessionResponse struct {
	session.Session
	Palette     []autocert.PaletteField `json:"palette"`
	CanGenerate bool                    `json:"canGenerate"`
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{Session: s, Palette: s.Palette(), CanGenerate: s.CanGenerate()}
}

func (sc SessionController) CreateSession(ctx *gin.Context) {
	type Request struct {
		StudentIds []string `json:"studentIds" form:"studentIds" binding:"required,min=1,dive,strNotEmpty"`
	}
	var body Request

	user, err := sc.getAuthUser(ctx)
	if err != nil {
		sc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	students, err := sc.app.Students.FetchMany(ctx.Request.Context(), body.StudentIds)
	if err != nil {
		sc.app.Logger.Errorf("Failed to fetch students: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, student.ErrStudentNotFound) {
			status = http.StatusNotFound
		}
		util.ResponseFailed(ctx, status, "Failed to fetch students", util.GenerateErrorMessages(err, "studentIds"), nil)
		return
	}

	s, err := sc.app.Sessions.Create(user.ID, students)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to create session", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.JSON(http.StatusCreated, util.BuildResponseSuccess(gin.H{"session": toSessionResponse(s)}))
}

func (sc SessionController) GetSession(ctx *gin.Context) {
	_, s, ok := sc.getOwnedSession(ctx)
	if !ok {
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(s)})
}

func (sc SessionController) DeleteSession(ctx *gin.Context) {
	_, s, ok := sc.getOwnedSession(ctx)
	if !ok {
		return
	}

	if err := sc.app.Sessions.Delete(s.ID); err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to delete session", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}
