package middleware

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoCertLMS/internal/auth"
	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/gin-gonic/gin"
)

// Used in place of a verified user when auth is disabled.
var localUser = auth.JWTPayload{
	ID:   "local",
	Name: "Local Instructor",
	Role: constant.TokenRoleInstructor,
}

var allowedRoles = []constant.TokenRole{constant.TokenRoleInstructor, constant.TokenRoleAdmin}

func (m Middleware) AuthMiddleware(ctx *gin.Context) {
	if !m.app.Config.Auth.Enabled {
		ctx.Set("user", localUser)
		ctx.Next()
		return
	}

	token, err := util.ReadAccessToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	if claim.Type != constant.JWT_TYPE_ACCESS && claim.Type != constant.JWT_TYPE_SERVICE {
		m.app.Logger.Debugf("Invalid token type: %s", claim.Type)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid access token type", util.GenerateErrorMessages(errors.New("invalid access token type"), "unauthorized"), nil)
		return
	}

	if !util.HasRole(claim.User.Role, allowedRoles) {
		util.ResponseFailed(ctx, http.StatusForbidden, "You do not have permission to generate certificates", util.GenerateErrorMessages(errors.New("instructor or admin role required"), "forbidden"), nil)
		return
	}

	ctx.Set("user", claim.User)
	ctx.Next()
}
