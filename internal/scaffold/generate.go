package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/mod/modfile"

	statekit "github.com/goliatone/go-statekit"
	"github.com/goliatone/go-statekit/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const statekitImport = "github.com/goliatone/go-statekit"

// StarterSchema is written as the schema file and drives the generated
// accessors.
var StarterSchema = schema.MustNew(schema.Fields{
	{Key: "count", Value: 0},
	{Key: "label", Value: ""},
	{Key: "settings", Value: schema.Fields{
		{Key: "enabled", Value: false},
		{Key: "tags", Value: []any{}},
	}},
})

// Result describes a completed generation.
type Result struct {
	Dir     string
	Written []string
	Skipped []Kind
	// ImportPath is the package import path, empty when <root>/go.mod is
	// missing.
	ImportPath string
}

type templateData struct {
	Package        string
	Name           string
	StatekitImport string
	Paths          []schema.Path
	TopLevel       []schema.Path
}

var funcs = template.FuncMap{
	"getterName": func(p schema.Path) string { return statekit.AccessorName("get", p) },
	"setterName": func(p schema.Path) string { return statekit.AccessorName("set", p) },
	"quoteJoin": func(p schema.Path) string {
		quoted := make([]string, len(p))
		for i, segment := range p {
			quoted[i] = strconv.Quote(segment)
		}
		return strings.Join(quoted, ", ")
	},
}

// Generate writes the selected files into <root>/<name>/. Existing files are
// only replaced with Force.
func Generate(opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	dir := filepath.Join(opts.Root, opts.Name)
	result := Result{Dir: dir}
	for _, kind := range Kinds {
		if _, ok := opts.Files[kind]; !ok {
			result.Skipped = append(result.Skipped, kind)
		}
	}

	if modulePath, err := ModulePath(opts.Root); err == nil {
		result.ImportPath = modulePath + "/" + opts.Name
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("scaffold: create %s: %w", dir, err)
	}

	data := newTemplateData(opts.Name)
	for _, kind := range opts.Selected() {
		content, err := render(kind, data)
		if err != nil {
			return Result{}, err
		}
		path := filepath.Join(dir, opts.Files[kind])
		if !opts.Force {
			if _, err := os.Stat(path); err == nil {
				return Result{}, fmt.Errorf("scaffold: %s exists, use --force to replace it", path)
			}
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return Result{}, fmt.Errorf("scaffold: write %s: %w", path, err)
		}
		result.Written = append(result.Written, path)
	}
	return result, nil
}

func newTemplateData(name string) templateData {
	data := templateData{
		Package:        strings.ToLower(name),
		Name:           name,
		StatekitImport: statekitImport,
	}
	for _, d := range StarterSchema.Descriptors() {
		data.Paths = append(data.Paths, d.Path)
		if len(d.Path) == 1 {
			data.TopLevel = append(data.TopLevel, d.Path)
		}
	}
	return data
}

func render(kind Kind, data templateData) ([]byte, error) {
	if kind == KindSchema {
		out, err := StarterSchema.ToYAML()
		if err != nil {
			return nil, fmt.Errorf("scaffold: render schema: %w", err)
		}
		header := fmt.Sprintf("# State schema for %s. Key order is declaration order.\n", data.Name)
		return append([]byte(header), out...), nil
	}

	name := "templates/" + string(kind) + ".go.tmpl"
	raw, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("scaffold: read template %s: %w", name, err)
	}
	tmpl, err := template.New(string(kind)).Funcs(funcs).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("scaffold: parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("scaffold: execute template %s: %w", name, err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("scaffold: format %s: %w", kind, err)
	}
	return formatted, nil
}

// ModulePath reads the module path from <root>/go.mod.
func ModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("scaffold: no go.mod in %s", root)
		}
		return "", fmt.Errorf("scaffold: read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("scaffold: could not determine module path from go.mod")
	}
	return path, nil
}
