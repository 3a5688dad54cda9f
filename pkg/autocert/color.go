package autocert

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa. Empty and "transparent" yield a zero-alpha color.
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "transparent" || v == "none" {
		return color.NRGBA{}, nil
	}

	alpha := uint8(0xff)
	if len(v) == 9 && strings.HasPrefix(v, "#") {
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = uint8(a)
		v = v[:7]
	}

	if len(v) != 4 && len(v) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	c, err := colorful.Hex(v)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func isTransparent(c color.NRGBA) bool {
	return c.A == 0
}
