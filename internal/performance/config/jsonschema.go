package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed run.schema.json
var runSchema string

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// Schema returns the JSON Schema for run configuration files.
func Schema() string {
	return runSchema
}

func loadSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("run.schema.json", strings.NewReader(runSchema)); err != nil {
			compiledSchemaErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("run.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

// validateSchema checks a decoded document against the run schema.
//
// YAML decodes to different Go types than the validator expects, so the
// document is round-tripped through encoding/json first.
func validateSchema(doc interface{}) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(b, &normalized); err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	if !errs.HasErrors() {
		errs.Add("", verr.Message)
	}
	return errs
}

// collectSchemaErrors flattens the leaf causes of a schema error.
func collectSchemaErrors(verr *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(verr.Causes) == 0 {
		errs.Add(fieldFromPointer(verr.InstanceLocation), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// fieldFromPointer turns "/thresholds/http_reqs/0" into "thresholds.http_reqs[0]".
func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var sb strings.Builder
	for i, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		if isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
