package util

import (
	"slices"

	"github.com/SeakMengs/AutoCertLMS/internal/constant"
)

// HasRole reports whether role is one of the allowed roles.
func HasRole(role constant.TokenRole, allowed []constant.TokenRole) bool {
	return slices.Contains(allowed, role)
}
