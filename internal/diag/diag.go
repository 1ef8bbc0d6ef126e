// Package diag collects the non-fatal problems found during a run and
// reports them through the logger and an optional YAML report.
package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// ImportFailure: a module could not be located, read or parsed. The
	// module is skipped.
	ImportFailure Kind = "import-failure"
	// DocstringDegradation: a docstring was malformed and parsed on a best
	// effort basis.
	DocstringDegradation Kind = "docstring-degradation"
	// NameCollision: two entities share a qualified name; the first one
	// discovered is kept.
	NameCollision Kind = "name-collision"
	// OutputPathCollision: two modules map to the same output file; the
	// later one is not written.
	OutputPathCollision Kind = "output-path-collision"
	// UnresolvedReference: a type or base class name that matches no
	// documented entity. It renders as plain text.
	UnresolvedReference Kind = "unresolved-reference"
)

// Level is the log level diagnostics of this kind are reported at.
func (k Kind) Level() logrus.Level {
	switch k {
	case ImportFailure, OutputPathCollision:
		return logrus.ErrorLevel
	case NameCollision, DocstringDegradation:
		return logrus.WarnLevel
	}
	return logrus.DebugLevel
}

// Diagnostic is one recorded problem.
type Diagnostic struct {
	Kind    Kind   `yaml:"kind"`
	Module  string `yaml:"module,omitempty"`
	Entity  string `yaml:"entity,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Line    int    `yaml:"line,omitempty"`
	Message string `yaml:"message"`
}

func (d Diagnostic) String() string {
	subject := d.Entity
	if subject == "" {
		subject = d.Module
	}
	if subject == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, subject, d.Message)
}

// List accumulates diagnostics. It is safe for concurrent use.
type List struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (l *List) Add(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, d)
}

// Addf records a diagnostic about entity (which may be empty) in module.
func (l *List) Addf(kind Kind, module, entity, format string, args ...any) {
	l.Add(Diagnostic{Kind: kind, Module: module, Entity: entity, Message: fmt.Sprintf(format, args...)})
}

// Items returns a copy of the recorded diagnostics in insertion order.
func (l *List) Items() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Diagnostic(nil), l.items...)
}

// Count returns the number of diagnostics of the given kind.
func (l *List) Count(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, d := range l.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Log writes every diagnostic to logger at its kind's level.
func (l *List) Log(logger logrus.FieldLogger) {
	for _, d := range l.Items() {
		entry := logger.WithField("kind", string(d.Kind))
		if d.Module != "" {
			entry = entry.WithField("module", d.Module)
		}
		if d.Entity != "" {
			entry = entry.WithField("entity", d.Entity)
		}
		if d.Path != "" {
			entry = entry.WithField("path", d.Path)
		}
		if d.Line > 0 {
			entry = entry.WithField("line", d.Line)
		}
		entry.Log(d.Kind.Level(), d.Message)
	}
}

// Report is the document written by WriteReport.
type Report struct {
	Summary     map[Kind]int `yaml:"summary"`
	Diagnostics []Diagnostic `yaml:"diagnostics"`
}

// WriteReport encodes the diagnostics as YAML.
func (l *List) WriteReport(w io.Writer) error {
	items := l.Items()
	report := Report{Summary: make(map[Kind]int), Diagnostics: items}
	for _, d := range items {
		report.Summary[d.Kind]++
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encode diagnostics report")
	}
	return errors.Wrap(enc.Close(), "encode diagnostics report")
}
