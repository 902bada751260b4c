// Package taskfile reads and writes the JSON task file used for bulk import
// and export. Input files are checked against an embedded JSON schema before
// they are decoded.
//
// The task file is an interchange format, not a backup. It carries the
// editable fields of a task (model.Input); createdAt and updatedAt are not
// written, and importing assigns fresh ids and timestamps. The SQLite store
// is the full-fidelity record.
package taskfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sandeepkv93/timeline/internal/model"
)

// Version is the file format version written by Write.
const Version = 1

const schemaURL = "timeline://taskfile.schema.json"

//go:embed schema.json
var schemaSource string

var ErrMalformed = errors.New("taskfile: malformed json")

// SchemaError reports the first schema violation in a task file.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("taskfile: invalid at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("taskfile: invalid: %s", e.Message)
}

// File is the on-disk document.
type File struct {
	Version int           `json:"version"`
	Tasks   []model.Input `json:"tasks"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("taskfile: add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("taskfile: compile schema: %w", err)
	}
	return schema, nil
})

// Read decodes a task file into candidate inputs. Field values are not
// validated beyond their JSON types; that is left to the engine.
func Read(r io.Reader) ([]model.Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("taskfile: read: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return file.Tasks, nil
}

// Write exports the editable fields of tasks in the format Read accepts.
// Drafts are skipped.
func Write(w io.Writer, tasks []model.Task) error {
	file := File{Version: Version, Tasks: make([]model.Input, 0, len(tasks))}
	for _, t := range tasks {
		if t.IsDraft() {
			continue
		}
		file.Tasks = append(file.Tasks, t.Input())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("taskfile: write: %w", err)
	}
	return nil
}

func ReadFile(path string) ([]model.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("taskfile: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes the export to a temporary sibling and renames it over
// path.
func WriteFile(path string, tasks []model.Task) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("taskfile: create dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := Write(&buf, tasks); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("taskfile: write: %w", err)
	}
	return os.Rename(tmp, path)
}

func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &SchemaError{Message: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &SchemaError{Path: pointerToPath(leaf.InstanceLocation), Message: leaf.Message}
}

// pointerToPath turns "/tasks/0/title" into "tasks[0].title".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
