// Package reflector builds the documentation graph for a set of Python
// module names.
//
// Modules are located on a search path the way the Python import system
// does, their sources parsed concurrently, and the graph is then assembled
// sequentially in discovery order: declarations become entities, imports
// become re-export aliases where the module exposes them, class hierarchies
// are linearised and inherited members attached, and every surviving entity
// is registered under its qualified name. Problems with single modules or
// entities are recorded as diagnostics and never abort the run.
package reflector

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/model"
)

// ErrNoRoots is returned when none of the requested modules could be
// loaded.
var ErrNoRoots = errors.New("no requested module could be loaded")

// Options configure a Reflector.
type Options struct {
	// SearchPath lists the directories modules are looked up in, in order.
	// Defaults to the working directory.
	SearchPath []string
	Style      docstring.Style
	// Jobs bounds the number of files parsed at once. Defaults to
	// GOMAXPROCS.
	Jobs   int
	Logger *logrus.Logger
}

type Reflector struct {
	opts  Options
	log   *logrus.Logger
	diags *diag.List
}

// New returns a Reflector recording its diagnostics in diags.
func New(opts Options, diags *diag.List) *Reflector {
	if len(opts.SearchPath) == 0 {
		opts.SearchPath = []string{"."}
	}
	if opts.Style == "" {
		opts.Style = docstring.Auto
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	if diags == nil {
		diags = &diag.List{}
	}
	return &Reflector{opts: opts, log: log, diags: diags}
}

// Load builds the graph of the modules named by roots and everything below
// them. The graph must not be modified afterwards.
func (r *Reflector) Load(ctx context.Context, roots []string) (*model.Graph, error) {
	units := r.discover(roots)
	all := flatten(units)
	r.log.WithField("modules", len(all)).Debug("discovered modules")

	if err := r.parse(ctx, all); err != nil {
		return nil, errors.Wrap(err, "parse modules")
	}

	b := newBuilder(r)
	g := b.build(units)
	if len(g.Roots) == 0 {
		return nil, ErrNoRoots
	}
	r.log.WithFields(logrus.Fields{
		"modules":  len(g.Modules()),
		"entities": g.Len(),
	}).Debug("built documentation graph")
	return g, nil
}
