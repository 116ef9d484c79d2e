package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ovn-lab/fanout/internal/dispatch"
)

// File is a JSON batch manifest: an explicit, ordered task list for runs
// where a plain index range is not expressive enough.
type File struct {
	Version  int      `json:"version"`
	Defaults Defaults `json:"defaults,omitempty"`
	Tasks    []Spec   `json:"tasks"`
}

// Defaults apply to every task that leaves the matching field empty.
type Defaults struct {
	Command    string `json:"command,omitempty"`
	OutputPath string `json:"output,omitempty"`
	Dir        string `json:"dir,omitempty"`
}

// Spec describes a single manifest task.
type Spec struct {
	ID         string   `json:"id,omitempty"`
	Command    string   `json:"command,omitempty"`
	Args       []string `json:"args,omitempty"`
	Stdin      []string `json:"stdin,omitempty"`
	OutputPath string   `json:"output,omitempty"`
	Dir        string   `json:"dir,omitempty"`
}

// ValidationError describes a single validation failure with its location.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ValidationResult aggregates validation errors and warnings.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool
}

// ValidationOptions controls manifest validation.
type ValidationOptions struct {
	// SchemaPath points at a JSON Schema file. Missing or broken
	// schemas degrade to structural validation with a warning.
	SchemaPath string
}

// Load reads and parses a manifest file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the manifest structurally and, when a schema is
// available, against the JSON Schema as well.
func (f *File) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	if opts.SchemaPath != "" {
		schemaResult := validateWithSchema(f, opts.SchemaPath)
		result.UsedSchema = schemaResult.UsedSchema
		result.Warnings = append(result.Warnings, schemaResult.Warnings...)
		if !schemaResult.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, schemaResult.Errors...)
		}
	}

	f.validateStructure(result)
	return result
}

func (f *File) validateStructure(result *ValidationResult) {
	if len(f.Tasks) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "tasks",
			Err:  fmt.Errorf("manifest has no tasks"),
		})
		return
	}

	seen := make(map[string]int)
	for i, task := range f.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if task.Command == "" && f.Defaults.Command == "" {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".command",
				Err:  fmt.Errorf("no command and no default command"),
			})
		}
		if task.ID == "" {
			continue
		}
		if prev, ok := seen[task.ID]; ok {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %q (first used by tasks[%d])", task.ID, prev),
			})
			continue
		}
		seen[task.ID] = i
	}
}

// Descriptors converts the manifest into dispatch tasks, applying
// defaults and filling missing IDs from the task position.
func (f *File) Descriptors() []dispatch.Task {
	tasks := make([]dispatch.Task, 0, len(f.Tasks))
	for i, spec := range f.Tasks {
		task := dispatch.Task{
			ID:         spec.ID,
			Index:      i,
			Command:    spec.Command,
			Args:       spec.Args,
			Stdin:      spec.Stdin,
			OutputPath: spec.OutputPath,
			Dir:        spec.Dir,
		}
		if task.ID == "" {
			task.ID = fmt.Sprintf("task-%d", i)
		}
		if task.Command == "" {
			task.Command = f.Defaults.Command
		}
		if task.OutputPath == "" {
			task.OutputPath = f.Defaults.OutputPath
		}
		if task.Dir == "" {
			task.Dir = f.Defaults.Dir
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// validateWithSchema attempts JSON Schema validation.
func validateWithSchema(f *File, schemaPath string) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema path: %v", err))
		return result
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("schema file not found: %s", absPath))
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to read schema file: %v", err))
		}
		return result
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	schema, err := compiler.Compile(absPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema file: %v", err))
		return result
	}

	result.UsedSchema = true

	fileData, err := json.Marshal(f)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to marshal manifest for validation: %w", err),
		})
		return result
	}

	var fileObj interface{}
	if err := json.Unmarshal(fileData, &fileObj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to unmarshal manifest for validation: %w", err),
		})
		return result
	}

	if err := schema.Validate(fileObj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}

	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
