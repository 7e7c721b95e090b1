package server

import (
	"net/http"
	"sort"
	"strings"
)

const openAPIPath = "/docs/openapi.json"

type openAPIDoc struct {
	OpenAPI    string                                `json:"openapi"`
	Info       openAPIInfo                           `json:"info"`
	Paths      map[string]map[string]openAPIOperation `json:"paths"`
	Components map[string]any                        `json:"components"`
}

type openAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type openAPIParameter struct {
	Name     string         `json:"name"`
	In       string         `json:"in"`
	Required bool           `json:"required"`
	Schema   map[string]any `json:"schema"`
}

type openAPIOperation struct {
	OperationID string                `json:"operationId"`
	Parameters  []openAPIParameter    `json:"parameters"`
	RequestBody map[string]any        `json:"requestBody,omitempty"`
	Responses   map[string]any        `json:"responses"`
	Security    []map[string][]string `json:"security"`
	Tags        []string              `json:"tags"`
	Deprecated  bool                  `json:"deprecated"`
}

func fieldSchema(f Field) map[string]any {
	schema := map[string]any{"type": f.Type}
	if f.Min != 0 || f.Max != 0 {
		schema["minimum"] = f.Min
		schema["maximum"] = f.Max
	}
	return schema
}

// exampleResponse documents the envelope a client sees for code.
func exampleResponse(id string, code int, message string) map[string]any {
	var result any = map[string]any{}
	if message != "" {
		result = messageResult(id, message)
	}
	return map[string]any{
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{
					"type": "object",
					"examples": []Envelope{{
						Success: code < 400,
						Latency: 1.0001,
						Code:    code,
						Result:  result,
					}},
				},
			},
		},
	}
}

// openAPI describes the registered endpoints as an OpenAPI 3.0 document.
// GET endpoints take their fields as query parameters, the rest as a JSON
// body.
func (s *Server) openAPI() openAPIDoc {
	paths := make(map[string]map[string]openAPIOperation)
	for _, cfg := range s.Endpoints() {
		id := endpointID(cfg.Method, cfg.Path)
		op := openAPIOperation{
			OperationID: id,
			Parameters:  []openAPIParameter{},
			Responses: map[string]any{
				"200": exampleResponse(id, http.StatusOK, ""),
				"400": exampleResponse(id, http.StatusBadRequest, "Bad request"),
				"500": exampleResponse(id, http.StatusInternalServerError, msgInternal),
			},
			Security:   []map[string][]string{{"Authorization": {}}},
			Tags:       []string{cfg.Category},
			Deprecated: cfg.Deprecated,
		}
		names := make([]string, 0, len(cfg.Fields))
		for name := range cfg.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		if cfg.Method == http.MethodGet {
			for _, name := range names {
				f := cfg.Fields[name]
				op.Parameters = append(op.Parameters, openAPIParameter{
					Name:     name,
					In:       "query",
					Required: f.Required,
					Schema:   fieldSchema(f),
				})
			}
		} else {
			props := make(map[string]any, len(names))
			var required []string
			for _, name := range names {
				props[name] = fieldSchema(cfg.Fields[name])
				if cfg.Fields[name].Required {
					required = append(required, name)
				}
			}
			op.RequestBody = map[string]any{
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{
							"type":       "object",
							"properties": props,
							"required":   required,
						},
					},
				},
			}
		}
		if paths[cfg.Path] == nil {
			paths[cfg.Path] = make(map[string]openAPIOperation)
		}
		paths[cfg.Path][strings.ToLower(cfg.Method)] = op
	}
	return openAPIDoc{
		OpenAPI: "3.0.0",
		Info:    openAPIInfo{Title: "API Docs", Version: "1.0.0"},
		Paths:   paths,
		Components: map[string]any{
			"securitySchemes": map[string]any{
				"Authorization": map[string]string{"type": "http", "scheme": "bearer"},
			},
		},
	}
}
