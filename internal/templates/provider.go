package templates

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Downloadable blank forms by URL slug
var slugs = map[string]string{
	"whodas":             "WHODAS",
	"whodas-youth":       "WHODASKIDS",
	"cans":               "CANS",
	"lsp":                "LSP",
	"lawton-brody-iadl":  "LAWTON",
	"lefs":               "LEFS",
	"berg-balance-scale": "BBS",
	"frat":               "FRAT",
	"honos":              "HONOS",
	"casp":               "CASP",
}

// Provider loads form templates and text resources from a directory
type Provider struct {
	fsys fs.FS
}

// NewProvider serves templates from fsys
func NewProvider(fsys fs.FS) *Provider {
	return &Provider{fsys: fsys}
}

// NewDirProvider serves templates from a directory on disk
func NewDirProvider(dir string) *Provider {
	return NewProvider(os.DirFS(dir))
}

// FileName returns the template file name for an instrument
func FileName(instrument string) string {
	return instrument + ".pdf"
}

// Template returns a fresh copy of the instrument's blank form. Every call
// reads the file again, so callers may modify the result freely.
func (p *Provider) Template(instrument string) ([]byte, error) {
	data, err := fs.ReadFile(p.fsys, FileName(instrument))
	if err != nil {
		return nil, fmt.Errorf("template for %s: %w", instrument, err)
	}
	return data, nil
}

// Lines returns a text resource split into lines, line endings removed
func (p *Provider) Lines(name string) ([]string, error) {
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", name, err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("resource %s: %w", name, err)
	}
	return lines, nil
}

// BySlug resolves a download slug to an instrument name
func BySlug(slug string) (string, bool) {
	name, ok := slugs[strings.ToLower(slug)]
	return name, ok
}

// Slugs lists the download slugs in sorted order
func Slugs() []string {
	out := make([]string, 0, len(slugs))
	for s := range slugs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Missing returns the names whose template file cannot be found
func (p *Provider) Missing(names []string) []string {
	var out []string
	for _, name := range names {
		if _, err := fs.Stat(p.fsys, FileName(name)); err != nil {
			out = append(out, name)
		}
	}
	return out
}
