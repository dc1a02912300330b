package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"phishguard/internal/core/version"
	"phishguard/internal/platform/config"
	perr "phishguard/internal/platform/errors"
)

//go:embed openapi.json
var openapiJSON string

// SpecMutator lets modules tweak the parsed spec before it is served
type SpecMutator func(map[string]any)

var mutators []SpecMutator

// docReader is a seam so tests can inject invalid JSON
var docReader = func() string { return openapiJSON }

// Register adds a spec mutator
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

// serveDocJSON serves the OpenAPI document with the runtime version and shared error responses filled in
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")

		info, _ := spec["info"].(map[string]any)
		if info != nil {
			if v := version.Info().Version; v != "" && v != "dev" {
				info["version"] = v
			}
			if s := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); s != "" {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + s
				}
			}
		}

		ensureErrorResponseDefinition(spec)
		addDefaultResponse(spec, http.StatusBadRequest, perr.ErrorCodeInvalidArgument, "url is a required field")
		addDefaultResponse(spec, http.StatusInternalServerError, perr.ErrorCodeDB, "database error occurred")

		for _, m := range mutators {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers pins the document to OAS 3.0.3 with a servers entry; the UI cannot render 3.1
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["swagger"]; ok {
		spec["openapi"] = "3.0.3"
		delete(spec, "swagger")
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorResponseDefinition adds the error envelope schema when missing
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultResponse injects an error response into every operation lacking that status
func addDefaultResponse(spec map[string]any, status int, code perr.ErrorCode, msg string) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	key, text := strconv.Itoa(status), http.StatusText(status)
	resp := map[string]any{
		"description": text,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      text,
					"code":        int(code),
					"error":       msg,
				},
			},
		},
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			rs, ok := op["responses"].(map[string]any)
			if !ok {
				rs = map[string]any{}
				op["responses"] = rs
			}
			if _, exists := rs[key]; !exists {
				rs[key] = resp
			}
		}
	}
}
