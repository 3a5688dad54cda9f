package route

import (
	"github.com/SeakMengs/AutoCertLMS/internal/controller"
	"github.com/SeakMengs/AutoCertLMS/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Sessions(r *gin.RouterGroup, c *controller.Controller, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/sessions")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", c.Session.CreateSession)
		v1.GET("/:sessionId", c.Session.GetSession)
		v1.DELETE("/:sessionId", c.Session.DeleteSession)

		v1.POST("/:sessionId/template", c.Template.UploadTemplate)
		v1.DELETE("/:sessionId/template", c.Template.RemoveTemplate)

		v1.POST("/:sessionId/fields", c.Field.AddField)
		v1.DELETE("/:sessionId/fields", c.Field.ClearFields)
		v1.PATCH("/:sessionId/fields/:fieldId", c.Field.UpdateField)
		v1.DELETE("/:sessionId/fields/:fieldId", c.Field.DeleteField)

		v1.POST("/:sessionId/csv", c.CSV.UploadCSV)
		v1.DELETE("/:sessionId/csv", c.CSV.RemoveCSV)

		v1.POST("/:sessionId/generate", c.Run.Generate)
		v1.GET("/:sessionId/runs", c.Run.ListRuns)
		v1.GET("/:sessionId/runs/:runId/summary", c.Run.GetRunSummary)
		v1.GET("/:sessionId/runs/:runId/bundle", c.Run.DownloadRunBundle)
		v1.GET("/:sessionId/runs/:runId/summary.xlsx", c.Run.DownloadRunWorkbook)
	}
}
