package changelog

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/getpup/pupmigrate"
)

// Parser turns the content of one changelog file into changesets.
// Parsers that support includes load them through the Loader.
type Parser interface {
	Parse(l *Loader, name string, data []byte) ([]ChangeSet, error)
}

// Parsers maps file extensions to changelog parsers.
type Parsers struct {
	byExt map[string]Parser
}

// NewParsers returns a registry holding the formatted SQL and YAML parsers.
func NewParsers() *Parsers {
	p := &Parsers{byExt: make(map[string]Parser)}
	p.Register(".sql", FormattedSQL{})
	p.Register(".yaml", YAML{})
	p.Register(".yml", YAML{})
	return p
}

// Register associates ext (including the leading dot) with parser, replacing any previous one.
func (p *Parsers) Register(ext string, parser Parser) {
	p.byExt[strings.ToLower(ext)] = parser
}

// For returns the parser for name's extension.
func (p *Parsers) For(name string) (Parser, bool) {
	parser, ok := p.byExt[strings.ToLower(path.Ext(name))]
	return parser, ok
}

// Packages returns the sorted Go package paths providing the registered parsers.
func (p *Parsers) Packages() []string {
	var pkgs []string
	for _, parser := range p.byExt {
		pkgs = append(pkgs, pupmigrate.PackageOf(parser))
	}
	slices.Sort(pkgs)
	return slices.Compact(pkgs)
}

// Loader reads changelogs from a resource accessor.
type Loader struct {
	fsys    fs.FS
	parsers *Parsers
	loading []string
}

// NewLoader creates a loader reading from fsys. A nil parsers uses NewParsers.
func NewLoader(fsys fs.FS, parsers *Parsers) *Loader {
	if parsers == nil {
		parsers = NewParsers()
	}
	return &Loader{fsys: fsys, parsers: parsers}
}

// Load reads and parses the changelog at name, expanding includes.
func (l *Loader) Load(name string) (*ChangeLog, error) {
	changeSets, err := l.load(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(changeSets))
	for _, cs := range changeSets {
		if seen[cs.Key()] {
			return nil, fmt.Errorf("%w: duplicate changeset %s", pupmigrate.ErrInvalidChangelog, cs.Key())
		}
		seen[cs.Key()] = true
	}

	return &ChangeLog{Path: cleanName(name), ChangeSets: changeSets}, nil
}

// Include loads another changelog file from within a parser.
func (l *Loader) Include(name string) ([]ChangeSet, error) {
	return l.load(name)
}

// ReadFile reads a resource, mapping a missing file to ErrChangelogNotFound.
func (l *Loader) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, cleanName(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", pupmigrate.ErrChangelogNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (l *Loader) load(name string) ([]ChangeSet, error) {
	name = cleanName(name)
	if slices.Contains(l.loading, name) {
		return nil, fmt.Errorf("%w: include cycle through %s", pupmigrate.ErrInvalidChangelog, name)
	}

	parser, ok := l.parsers.For(name)
	if !ok {
		return nil, fmt.Errorf("%w: no parser for %s", pupmigrate.ErrInvalidChangelog, name)
	}

	data, err := l.ReadFile(name)
	if err != nil {
		return nil, err
	}

	l.loading = append(l.loading, name)
	defer func() { l.loading = l.loading[:len(l.loading)-1] }()

	return parser.Parse(l, name, data)
}

// cleanName turns a classpath-style name into an fs.FS path.
func cleanName(name string) string {
	name = strings.TrimPrefix(name, "classpath:")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
