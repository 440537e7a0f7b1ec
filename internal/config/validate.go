// CUE schema validation code
package config

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

const schemaFile = "dashboard.cue"

//go:embed dashboard.cue
var schemaFS embed.FS

// ValidateWithCue checks YAML config bytes against the #Config definition of
// a CUE schema. name is only used in error positions.
func ValidateWithCue(name string, yamlBytes, schemaBytes []byte) error {
	ctx := cuecontext.New()

	file, err := yaml.Extract(name, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot build YAML config: %w", configVal.Err())
	}

	schemaVal := ctx.CompileBytes(schemaBytes)
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("schema has no #Config definition")
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
