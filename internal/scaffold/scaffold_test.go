package scaffold

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-statekit/schema"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want Options
	}{
		{
			name: "defaults select every file",
			args: []string{"--root=/tmp/x", "--name", "cart"},
			want: Options{
				Root: "/tmp/x",
				Name: "cart",
				Files: map[Kind]string{
					KindSchema:  "schema.yaml",
					KindGetters: "getters.go",
					KindSetters: "setters.go",
					KindMethods: "methods.go",
				},
				Overridden: map[Kind]bool{},
			},
		},
		{
			name: "chained short flags",
			args: []string{"-Sgs", "--force"},
			want: Options{
				Force: true,
				Files: map[Kind]string{
					KindSchema:  "schema.yaml",
					KindGetters: "getters.go",
					KindSetters: "setters.go",
				},
				Overridden: map[Kind]bool{},
			},
		},
		{
			name: "override selects the kind",
			args: []string{"-m", "schema=state.yaml"},
			want: Options{
				Files: map[Kind]string{
					KindSchema:  "state.yaml",
					KindMethods: "methods.go",
				},
				Overridden: map[Kind]bool{KindSchema: true},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseArgs(tc.args)
			if err != nil {
				t.Fatalf("ParseArgs: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-x"},
		{"--color=red"},
		{"styles=a.go"},
		{"stray"},
		{"--root"},
	} {
		if _, err := ParseArgs(args); err == nil {
			t.Fatalf("ParseArgs(%v) should fail", args)
		}
	}
	if _, err := ParseArgs([]string{"-h"}); !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	opts, _ := ParseArgs([]string{"--root=.", "--name=9lives"})
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected invalid identifier error")
	}
	opts, _ = ParseArgs([]string{"--root=.", "--name=cart", "getters=../x.go"})
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected invalid filename error")
	}
	if err := (Options{Name: "cart"}).Validate(); !errors.Is(err, ErrMissingArgs) {
		t.Fatalf("expected ErrMissingArgs, got %v", err)
	}
}

func TestPromptFillsMissingValues(t *testing.T) {
	opts, err := ParseArgs([]string{"-Sg", "getters=read.go"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	var out bytes.Buffer
	got, err := Prompt(strings.NewReader("/srv/app\n\n1bad\ncart\n-\n"), &out, opts)
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	want := Options{
		Root:       "/srv/app",
		Name:       "cart",
		Files:      map[Kind]string{KindGetters: "read.go"},
		Overridden: map[Kind]bool{KindGetters: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("prompt result mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(out.String(), "manager name") != 3 {
		t.Fatalf("expected the name to be asked until valid:\n%s", out.String())
	}
	if strings.Contains(out.String(), "getters file") {
		t.Fatalf("overridden files must not be prompted:\n%s", out.String())
	}
}

func TestPromptFailsOnEOF(t *testing.T) {
	if _, err := Prompt(strings.NewReader(""), &bytes.Buffer{}, Options{}); err == nil {
		t.Fatalf("expected error on empty input")
	}
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/shop\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	opts, err := ParseArgs([]string{"--root=" + root, "--name=Cart"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	result, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.ImportPath != "example.com/shop/Cart" {
		t.Fatalf("unexpected import path %q", result.ImportPath)
	}
	if len(result.Written) != 4 || len(result.Skipped) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	raw, err := os.ReadFile(filepath.Join(root, "Cart", "schema.yaml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	loaded, err := schema.FromYAML(raw)
	if err != nil {
		t.Fatalf("generated schema does not load: %v", err)
	}
	if diff := cmp.Diff(StarterSchema.Keys(), loaded.Keys()); diff != "" {
		t.Fatalf("schema key order mismatch (-want +got):\n%s", diff)
	}

	getters, err := os.ReadFile(filepath.Join(root, "Cart", "getters.go"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{
		"package cart",
		`"getSettings_enabled": func(m *statekit.Manager) (any, error) {`,
		`m.State().Lookup("settings", "enabled")`,
	} {
		if !strings.Contains(string(getters), want) {
			t.Fatalf("getters.go missing %q:\n%s", want, getters)
		}
	}
	setters, _ := os.ReadFile(filepath.Join(root, "Cart", "setters.go"))
	if !strings.Contains(string(setters), `statekit.Patch{"count": value}`) {
		t.Fatalf("setters.go missing count setter:\n%s", setters)
	}

	if _, err := Generate(opts); err == nil {
		t.Fatalf("expected existing files to be refused")
	}
	opts.Force = true
	if _, err := Generate(opts); err != nil {
		t.Fatalf("Generate with force: %v", err)
	}
}

func TestGenerateWithoutGoMod(t *testing.T) {
	root := t.TempDir()
	opts, _ := ParseArgs([]string{"--root=" + root, "--name=cart", "-S"})
	result, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.ImportPath != "" {
		t.Fatalf("expected no import path, got %q", result.ImportPath)
	}
	summary := Render(result, PlainStyles())
	if !strings.Contains(summary, "import path unknown") || !strings.Contains(summary, "methods skipped") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}
