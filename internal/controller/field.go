package controller

import (
	"net/http"

	"github.com/SeakMengs/AutoCertLMS/internal/session"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/gin-gonic/gin"
)

type FieldController struct {
	*baseController
}

// AddField places a new mapping centered on the template.
func (fc FieldController) AddField(ctx *gin.Context) {
	type Request struct {
		Name        string             `json:"name" form:"name" binding:"required,strNotEmpty,cmax=64"`
		DisplayName string             `json:"displayName" form:"displayName" binding:"omitempty,cmin=1,cmax=100"`
		ValueType   autocert.ValueType `json:"valueType" form:"valueType" binding:"omitempty,oneof=text number date"`
	}
	var body Request

	_, s, ok := fc.getOwnedSession(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	field := autocert.PaletteField{Name: body.Name, DisplayName: body.DisplayName, ValueType: body.ValueType}
	for _, p := range s.Palette() {
		if p.Name == body.Name {
			if field.DisplayName == "" {
				field.DisplayName = p.DisplayName
			}
			if field.ValueType == "" {
				field.ValueType = p.ValueType
			}
			break
		}
	}

	fm, err := fc.app.Sessions.AddMapping(s.ID, field)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to add field", util.GenerateErrorMessages(err, "fields"), nil)
		return
	}

	ctx.JSON(http.StatusCreated, util.BuildResponseSuccess(gin.H{"field": fm}))
}

// UpdateField moves, resizes or restyles a mapping. Omitted members are left untouched.
func (fc FieldController) UpdateField(ctx *gin.Context) {
	var body session.MappingUpdate

	_, s, ok := fc.getOwnedSession(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if body.Style != nil {
		colors := map[string]*string{
			"style.color":           body.Style.Color,
			"style.backgroundColor": body.Style.BackgroundColor,
			"style.borderColor":     body.Style.BorderColor,
		}
		for field, value := range colors {
			if value == nil {
				continue
			}
			if _, err := autocert.ParseColor(*value); err != nil {
				util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid color", util.GenerateErrorMessages(err, field), nil)
				return
			}
		}
	}

	fm, err := fc.app.Sessions.UpdateMapping(s.ID, ctx.Params.ByName("fieldId"), body)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to update field", util.GenerateErrorMessages(err, "fieldId"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"field": fm})
}

func (fc FieldController) DeleteField(ctx *gin.Context) {
	_, s, ok := fc.getOwnedSession(ctx)
	if !ok {
		return
	}

	updated, err := fc.app.Sessions.DeleteMapping(s.ID, ctx.Params.ByName("fieldId"))
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to delete field", util.GenerateErrorMessages(err, "fieldId"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(updated)})
}

func (fc FieldController) ClearFields(ctx *gin.Context) {
	_, s, ok := fc.getOwnedSession(ctx)
	if !ok {
		return
	}

	updated, err := fc.app.Sessions.ClearMappings(s.ID)
	if err != nil {
		util.ResponseFailed(ctx, sessionErrorStatus(err), "Failed to clear fields", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"session": toSessionResponse(updated)})
}
