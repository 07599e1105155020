package authapi

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"authfort-cli/internal/observability"
)

//go:embed openapi.yaml
var openAPISpec []byte

// Contract validates backend responses against the embedded OpenAPI document.
// In non-strict mode violations are only logged.
type Contract struct {
	doc    *openapi3.T
	strict bool
}

// LoadContract parses and validates the embedded OpenAPI document
func LoadContract(strict bool) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI spec validation failed: %w", err)
	}

	return &Contract{doc: doc, strict: strict}, nil
}

// Doc returns the parsed OpenAPI document
func (c *Contract) Doc() *openapi3.T {
	return c.doc
}

// ValidateResponse checks a response to req on endpoint.
// It returns an error wrapping ErrContractViolation only in strict mode.
func (c *Contract) ValidateResponse(ctx context.Context, req *http.Request, endpoint string, status int, header http.Header, body []byte) error {
	route, err := c.route(req.Method, endpoint)
	if err != nil {
		return c.violation(ctx, req.Method, endpoint, status, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request: req,
			Route:   route,
		},
		Status: status,
		Header: header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return c.violation(ctx, req.Method, endpoint, status, err)
	}

	observability.FromContext(ctx).Debug("response matches contract",
		slog.String("method", req.Method),
		slog.String("endpoint", endpoint),
		slog.Int("status", status))
	return nil
}

func (c *Contract) route(method, endpoint string) (*routers.Route, error) {
	pathItem := c.doc.Paths.Find(endpoint)
	if pathItem == nil {
		return nil, fmt.Errorf("path not found in OpenAPI spec: %s", endpoint)
	}
	op := pathItem.GetOperation(method)
	if op == nil {
		return nil, fmt.Errorf("operation not found in OpenAPI spec: %s %s", method, endpoint)
	}
	return &routers.Route{
		Spec:      c.doc,
		Path:      endpoint,
		PathItem:  pathItem,
		Method:    method,
		Operation: op,
	}, nil
}

func (c *Contract) violation(ctx context.Context, method, endpoint string, status int, err error) error {
	observability.FromContext(ctx).Warn("response validation failed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	if c.strict {
		return fmt.Errorf("%w: %s %s: %v", ErrContractViolation, method, endpoint, err)
	}
	return nil
}
