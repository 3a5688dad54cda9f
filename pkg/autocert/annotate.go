package autocert

import (
	"fmt"
	"image"
	"math"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	MinFieldWidth  = 50
	MinFieldHeight = 16

	defaultFieldWidth  = 200
	defaultFieldHeight = 40
	defaultFontSize    = 16
	defaultPadding     = 4
	fieldIDLength      = 12
)

type SourceFormat string

const (
	SourceFormatPDF   SourceFormat = "pdf"
	SourceFormatImage SourceFormat = "image"
)

type ValueType string

const (
	ValueTypeText   ValueType = "text"
	ValueTypeNumber ValueType = "number"
	ValueTypeDate   ValueType = "date"
)

type TextAlign string

const (
	TextAlignLeft   TextAlign = "left"
	TextAlignCenter TextAlign = "center"
	TextAlignRight  TextAlign = "right"
)

// Rect is expressed in template pixel space, origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x" form:"x"`
	Y      float64 `json:"y" form:"y"`
	Width  float64 `json:"width" form:"width" binding:"gte=0"`
	Height float64 `json:"height" form:"height" binding:"gte=0"`
}

// Padded returns the rectangle grown by p on all sides.
func (r Rect) Padded(p float64) Rect {
	return Rect{
		X:      r.X - p,
		Y:      r.Y - p,
		Width:  r.Width + 2*p,
		Height: r.Height + 2*p,
	}
}

type FieldStyle struct {
	FontSize        float64   `json:"fontSize" form:"fontSize" binding:"omitempty,gt=0"`
	FontFamily      string    `json:"fontFamily" form:"fontFamily"`
	FontWeight      string    `json:"fontWeight" form:"fontWeight"`
	Color           string    `json:"color" form:"color"`
	Align           TextAlign `json:"align" form:"align" binding:"omitempty,oneof=left center right"`
	BackgroundColor string    `json:"backgroundColor" form:"backgroundColor"`
	BorderColor     string    `json:"borderColor,omitempty" form:"borderColor"`
	Padding         float64   `json:"padding" form:"padding" binding:"gte=0"`
}

func DefaultFieldStyle() FieldStyle {
	return FieldStyle{
		FontSize:        defaultFontSize,
		FontFamily:      DefaultFontFamily,
		FontWeight:      string(FontWeightRegular),
		Color:           "#000000",
		Align:           TextAlignCenter,
		BackgroundColor: "transparent",
		Padding:         defaultPadding,
	}
}

// FieldMapping binds one positioned text element on the template to a logical field name.
type FieldMapping struct {
	ID          string     `json:"id"`
	FieldName   string     `json:"fieldName"`
	DisplayName string     `json:"displayName"`
	ValueType   ValueType  `json:"valueType"`
	Rect        Rect       `json:"rect"`
	Style       FieldStyle `json:"style"`
}

// Template is the normalized raster background every certificate is drawn on.
type Template struct {
	ID           string       `json:"id"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	SourceFormat SourceFormat `json:"sourceFormat"`
	CreatedAt    time.Time    `json:"createdAt"`
	Image        image.Image  `json:"-"`
}

// PaletteField is an entry a mapping can be created from.
type PaletteField struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	ValueType   ValueType `json:"valueType"`
}

func NewFieldMapping(field PaletteField, tpl *Template) (FieldMapping, error) {
	id, err := gonanoid.New(fieldIDLength)
	if err != nil {
		return FieldMapping{}, fmt.Errorf("generating field id: %w", err)
	}

	valueType := field.ValueType
	if valueType == "" {
		valueType = ValueTypeText
	}
	displayName := field.DisplayName
	if displayName == "" {
		displayName = field.Name
	}

	rect := Rect{Width: defaultFieldWidth, Height: defaultFieldHeight}
	if tpl != nil {
		rect.X = float64(tpl.Width)/2 - defaultFieldWidth/2
		rect.Y = float64(tpl.Height)/2 - defaultFieldHeight/2
	}

	return FieldMapping{
		ID:          id,
		FieldName:   field.Name,
		DisplayName: displayName,
		ValueType:   valueType,
		Rect:        ClampRect(rect, tpl),
		Style:       DefaultFieldStyle(),
	}, nil
}

// ClampRect enforces the minimum size first and then keeps the rectangle inside the template.
// A nil template only applies the minimums.
func ClampRect(r Rect, tpl *Template) Rect {
	r.Width = math.Max(r.Width, MinFieldWidth)
	r.Height = math.Max(r.Height, MinFieldHeight)

	if tpl == nil {
		return r
	}

	w, h := float64(tpl.Width), float64(tpl.Height)
	r.Width = math.Min(r.Width, w)
	r.Height = math.Min(r.Height, h)
	r.X = math.Min(math.Max(r.X, 0), w-r.Width)
	r.Y = math.Min(math.Max(r.Y, 0), h-r.Height)

	return r
}

func (fm FieldMapping) Move(x, y float64, tpl *Template) FieldMapping {
	fm.Rect.X = x
	fm.Rect.Y = y
	fm.Rect = ClampRect(fm.Rect, tpl)
	return fm
}

func (fm FieldMapping) Resize(width, height float64, tpl *Template) FieldMapping {
	fm.Rect.Width = width
	fm.Rect.Height = height
	fm.Rect = ClampRect(fm.Rect, tpl)
	return fm
}

// StyleUpdate is a partial FieldStyle change. Nil members are left untouched, so zero values
// such as a padding of 0 can be set explicitly.
type StyleUpdate struct {
	FontSize        *float64   `json:"fontSize" binding:"omitempty,gt=0"`
	FontFamily      *string    `json:"fontFamily" binding:"omitempty,strNotEmpty,cmax=100"`
	FontWeight      *string    `json:"fontWeight"`
	Color           *string    `json:"color"`
	Align           *TextAlign `json:"align" binding:"omitempty,oneof=left center right"`
	BackgroundColor *string    `json:"backgroundColor"`
	BorderColor     *string    `json:"borderColor"`
	Padding         *float64   `json:"padding" binding:"omitempty,gte=0"`
}

// WithStyle applies the non-nil members of u to the current style.
func (fm FieldMapping) WithStyle(u StyleUpdate) FieldMapping {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	if u.FontSize != nil {
		fm.Style.FontSize = *u.FontSize
	}
	if u.Align != nil {
		fm.Style.Align = *u.Align
	}
	if u.Padding != nil {
		fm.Style.Padding = *u.Padding
	}
	set(&fm.Style.FontFamily, u.FontFamily)
	set(&fm.Style.FontWeight, u.FontWeight)
	set(&fm.Style.Color, u.Color)
	set(&fm.Style.BackgroundColor, u.BackgroundColor)
	set(&fm.Style.BorderColor, u.BorderColor)
	return fm
}
