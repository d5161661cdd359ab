// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// courtSlugRe matches CourtListener court identifiers such as "scotus"
// or "ca9".
var courtSlugRe = regexp.MustCompile(`^[a-z0-9.-]+$`)

var courtSlug validator.Func = func(fl validator.FieldLevel) bool {
	return courtSlugRe.MatchString(fl.Field().String())
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("courtslug", courtSlug)
	}
}
