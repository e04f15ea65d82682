// Package validator enforces the API contract at the edge using the embedded
// OpenAPI document. Routes not described in the document pass through
// untouched; schema violations are rejected before reaching handlers.
package validator

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"

	apperrors "ai-persona-chat/backend/pkg/errors"
)

//go:embed openapi.yaml
var specData []byte

// Validator validates incoming requests against the API document.
type Validator struct {
	router routers.Router
}

// New parses and validates the embedded document.
func New(ctx context.Context) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specData)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Middleware returns the gin middleware enforcing the contract.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			// Undocumented route; downstream validation still applies.
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				MultiError: false,
			},
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.Error(apperrors.NewValidationError("request does not match the API contract").
				WithDetails(err.Error()))
			c.Abort()
			return
		}
		c.Next()
	}
}
