package controller

import (
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"message":     "Welcome to " + util.GetAppName(),
		"persistence": ic.app.HasRepository(),
		"objectStore": ic.app.S3 != nil,
	})
}
