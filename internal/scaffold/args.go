// Package scaffold generates starter schema and accessor files for a new
// statekit manager.
package scaffold

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

// Kind names one generated file.
type Kind string

const (
	KindSchema  Kind = "schema"
	KindGetters Kind = "getters"
	KindSetters Kind = "setters"
	KindMethods Kind = "methods"
)

// Kinds lists every file kind in generation order.
var Kinds = []Kind{KindSchema, KindGetters, KindSetters, KindMethods}

var shorthands = map[Kind]string{
	KindSchema:  "S",
	KindGetters: "g",
	KindSetters: "s",
	KindMethods: "m",
}

// DefaultFilename returns the file written for kind when no override is given.
func DefaultFilename(kind Kind) string {
	if kind == KindSchema {
		return "schema.yaml"
	}
	return string(kind) + ".go"
}

// ErrMissingArgs reports a missing --root or --name without a terminal to
// prompt on.
var ErrMissingArgs = errors.New("scaffold: --root and --name are required")

// ErrHelp is returned by ParseArgs when -h or --help is given.
var ErrHelp = errors.New("scaffold: help requested")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options selects what to generate and where.
type Options struct {
	Root  string
	Name  string
	Force bool
	// Files maps each selected kind to its filename. Kinds not in the map
	// are skipped.
	Files map[Kind]string
	// Overridden marks kinds whose filename came from key=value arguments.
	Overridden map[Kind]bool
}

// Missing reports whether root or name still has to be provided.
func (o Options) Missing() bool {
	return strings.TrimSpace(o.Root) == "" || strings.TrimSpace(o.Name) == ""
}

// Selected lists the kinds that will be generated, in generation order.
func (o Options) Selected() []Kind {
	var out []Kind
	for _, kind := range Kinds {
		if _, ok := o.Files[kind]; ok {
			out = append(out, kind)
		}
	}
	return out
}

// Validate checks the name and the filenames.
func (o Options) Validate() error {
	if o.Missing() {
		return ErrMissingArgs
	}
	if !identifier.MatchString(o.Name) {
		return fmt.Errorf("scaffold: name %q is not an identifier", o.Name)
	}
	if len(o.Files) == 0 {
		return fmt.Errorf("scaffold: nothing to generate")
	}
	for kind, name := range o.Files {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("scaffold: invalid %s filename %q", kind, name)
		}
	}
	return nil
}

// Flags holds the command-line values before they become Options.
type Flags struct {
	Root  string
	Name  string
	Force bool
	kinds map[Kind]*bool
}

// Bind registers --root, --name, --force and one boolean per kind with its
// shorthand (-S -g -s -m) on fs. Shorthands chain, as in -Sgs.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.Root, "root", "", "directory that receives the <name> package")
	fs.StringVar(&f.Name, "name", "", "manager name, used as the package directory")
	fs.BoolVar(&f.Force, "force", false, "replace existing files")
	f.kinds = make(map[Kind]*bool, len(Kinds))
	for _, kind := range Kinds {
		f.kinds[kind] = fs.BoolP(string(kind), shorthands[kind], false, "generate "+DefaultFilename(kind))
	}
}

// Options combines the parsed flags with kind=filename overrides. Without
// kind flags or overrides every kind is selected.
func (f *Flags) Options(overrides []string) (Options, error) {
	opts := Options{
		Root:       strings.TrimSpace(f.Root),
		Name:       strings.TrimSpace(f.Name),
		Force:      f.Force,
		Files:      map[Kind]string{},
		Overridden: map[Kind]bool{},
	}
	selected := map[Kind]bool{}
	for kind, on := range f.kinds {
		if on != nil && *on {
			selected[kind] = true
		}
	}
	for _, arg := range overrides {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return opts, fmt.Errorf("scaffold: unexpected argument %q", arg)
		}
		kind := Kind(strings.TrimSpace(key))
		if !isKind(kind) {
			return opts, fmt.Errorf("scaffold: unknown file %q", key)
		}
		opts.Files[kind] = strings.TrimSpace(value)
		opts.Overridden[kind] = true
		selected[kind] = true
	}

	for _, kind := range Kinds {
		if len(selected) > 0 && !selected[kind] {
			delete(opts.Files, kind)
			continue
		}
		if _, ok := opts.Files[kind]; !ok {
			opts.Files[kind] = DefaultFilename(kind)
		}
	}
	return opts, nil
}

// ParseArgs parses a full argument list with the same flags the command
// binds.
//
//	--root=. --name=cart -Sg getters=read.go
func ParseArgs(args []string) (Options, error) {
	fs := pflag.NewFlagSet("statekit-scaffold", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var flags Flags
	flags.Bind(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Options{}, ErrHelp
		}
		return Options{}, fmt.Errorf("scaffold: %w", err)
	}
	return flags.Options(fs.Args())
}

func isKind(kind Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Description is the long help text of the command.
const Description = `Generates <root>/<name>/ with a state schema and accessor sources.

Without -S, -g, -s or -m every file is generated. kind=filename arguments
override a filename and select that kind, e.g. schema=state.yaml.
Missing --root or --name on a terminal starts a prompt; answer - to skip a file.`
