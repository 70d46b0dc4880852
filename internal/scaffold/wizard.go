package scaffold

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Prompt asks for whatever opts is missing: root, name and a filename per
// selected kind not already overridden. An empty answer keeps the default
// and "-" skips the file.
func Prompt(in io.Reader, out io.Writer, opts Options) (Options, error) {
	reader := bufio.NewReader(in)
	ask := func(question, fallback string) (string, error) {
		if fallback != "" {
			fmt.Fprintf(out, "%s [%s]: ", question, fallback)
		} else {
			fmt.Fprintf(out, "%s: ", question)
		}
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("scaffold: read answer: %w", err)
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			return fallback, nil
		}
		return answer, nil
	}

	if opts.Files == nil {
		opts.Files = map[Kind]string{}
	}
	for opts.Root == "" {
		root, err := ask("root directory", ".")
		if err != nil {
			return opts, err
		}
		opts.Root = root
	}
	for !identifier.MatchString(opts.Name) {
		name, err := ask("manager name", "")
		if err != nil {
			return opts, err
		}
		opts.Name = name
	}

	for _, kind := range Kinds {
		current, selected := opts.Files[kind]
		if !selected || opts.Overridden[kind] {
			continue
		}
		answer, err := ask(fmt.Sprintf("%s file (- to skip)", kind), current)
		if err != nil {
			return opts, err
		}
		if answer == "-" {
			delete(opts.Files, kind)
			continue
		}
		opts.Files[kind] = answer
	}
	return opts, nil
}
