package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	appcontext "github.com/SeakMengs/AutoCertLMS/internal/app_context"
	"github.com/SeakMengs/AutoCertLMS/internal/auth"
	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/gin-gonic/gin"
)

const (
	ErrSessionIdRequired = "session id is required"
	ErrSessionForbidden  = "you do not have permission to access this session"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Session  *SessionController
	Template *TemplateController
	Field    *FieldController
	CSV      *CSVController
	Run      *RunController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Session:  &SessionController{baseController: bc},
		Template: &TemplateController{baseController: bc},
		Field:    &FieldController{baseController: bc},
		CSV:      &CSVController{baseController: bc},
		Run:      &RunController{baseController: bc},
	}
}

func (b *baseController) getAuthUser(ctx *gin.Context) (*auth.JWTPayload, error) {
	user, exists := ctx.Get("user")
	if !exists {
		return nil, errors.New("user not found in context")
	}

	jsonUser, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	var authUser *auth.JWTPayload
	err = json.Unmarshal(jsonUser, &authUser)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return authUser, nil
}

// getOwnedSession loads the :sessionId session of the caller. On failure the response
// is already written and ok is false.
func (b *baseController) getOwnedSession(ctx *gin.Context) (*auth.JWTPayload, session.Session, bool) {
	user, err := b.getAuthUser(ctx)
	if err != nil {
		b.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return nil, session.Session{}, false
	}

	sessionId := ctx.Params.ByName("sessionId")
	if sessionId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Session id is required", util.GenerateErrorMessages(errors.New(ErrSessionIdRequired), "sessionId"), nil)
		return nil, session.Session{}, false
	}

	s, err := b.app.Sessions.Get(sessionId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "Session not found", util.GenerateErrorMessages(err, "notFound"), nil)
		return nil, session.Session{}, false
	}

	if s.OwnerID != user.ID && user.Role != constant.TokenRoleAdmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrSessionForbidden, util.GenerateErrorMessages(errors.New(ErrSessionForbidden), "forbidden"), nil)
		return nil, session.Session{}, false
	}

	return user, s, true
}

// sessionErrorStatus maps store errors onto http status codes.
func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrMappingNotFound),
		errors.Is(err, session.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrTemplateRequired),
		errors.Is(err, session.ErrNoStudents):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
