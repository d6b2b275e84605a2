package shape

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/reoring/reshape"
)

//go:embed schemas/profile.json
var schemaFS embed.FS

const schemaID = "profile.json"

// Violation is one problem found in a profile document.
type Violation struct {
	Path    string // JSON Pointer into the document, "" for the whole document
	Message string
}

func (v Violation) String() string {
	if v.Path != "" {
		return v.Path + ": " + v.Message
	}
	return v.Message
}

// DocumentError reports an invalid profile document.
type DocumentError struct {
	Source     string // file name when loaded from disk
	Violations []Violation
}

func (e *DocumentError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	prefix := "shape: invalid profile document"
	if e.Source != "" {
		prefix += " " + e.Source
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Issues exposes each violation as an invalid_format issue.
func (e *DocumentError) Issues() reshape.Issues {
	out := make(reshape.Issues, 0, len(e.Violations))
	for _, v := range e.Violations {
		path := v.Path
		if path == "" {
			path = "/"
		}
		out = append(out, reshape.Issue{Path: path, Code: reshape.CodeInvalidFormat, Message: v.Message})
	}
	return out
}

type document struct {
	Profiles []Profile `yaml:"profiles"`
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + schemaID)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaID, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile(schemaID)
})

// Validate checks a YAML (or JSON) profile document against the profile
// schema and the cross-profile constraints: unique names, known nested
// profiles, no nesting cycles. It returns nil for a valid document.
func Validate(data []byte) []Violation {
	if v := validateSchema(data); len(v) > 0 {
		return v
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []Violation{{Message: err.Error()}}
	}
	_, v := buildSet(doc.Profiles)
	return v
}

func validateSchema(data []byte) []Violation {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []Violation{{Message: "parse: " + err.Error()}}
	}
	// Round trip through JSON so numbers and keys have the types the
	// validator expects.
	js, err := json.Marshal(raw)
	if err != nil {
		return []Violation{{Message: "parse: " + err.Error()}}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return []Violation{{Message: "parse: " + err.Error()}}
	}

	sch, err := compiledSchema()
	if err != nil {
		return []Violation{{Message: err.Error()}}
	}
	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Violation{{Message: err.Error()}}
	}
	return collectViolations(ve)
}

var schemaPrinter = message.NewPrinter(language.English)

// collectViolations flattens the leaf causes of a validation error.
func collectViolations(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		return []Violation{{Path: path, Message: ve.ErrorKind.LocalizedString(schemaPrinter)}}
	}
	var out []Violation
	for _, c := range ve.Causes {
		out = append(out, collectViolations(c)...)
	}
	return out
}

// Load parses and validates a profile document.
func Load(data []byte) (*Set, error) {
	if v := validateSchema(data); len(v) > 0 {
		return nil, &DocumentError{Violations: v}
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DocumentError{Violations: []Violation{{Message: err.Error()}}}
	}
	set, v := buildSet(doc.Profiles)
	if len(v) > 0 {
		return nil, &DocumentError{Violations: v}
	}
	return set, nil
}

// LoadReader is Load over a reader.
func LoadReader(r io.Reader) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("shape: read profiles: %w", err)
	}
	return Load(data)
}

// LoadFile loads the profile document at path.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shape: read profiles: %w", err)
	}
	set, err := Load(data)
	var de *DocumentError
	if errors.As(err, &de) {
		de.Source = path
	}
	return set, err
}
