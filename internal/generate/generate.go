// Package generate runs the documentation pipeline: it reflects the
// requested modules, assigns each one a document path, renders it and hands
// the result to a Writer.
package generate

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
	"github.com/agentflare-ai/pydocmd/internal/reflector"
	"github.com/agentflare-ai/pydocmd/internal/render"
)

// Writer receives rendered documents. path is slash separated and relative
// to the output root.
type Writer interface {
	Write(path string, data []byte) error
}

type Options struct {
	Reflector reflector.Options
	Paths     outpath.Options
	Render    render.Options
	// Index writes a table of contents of the root modules at the output
	// root, unless a module's document already lives there.
	Index  bool
	Logger *logrus.Logger
}

// Result describes a finished run.
type Result struct {
	Graph *model.Graph
	// Documents lists the written paths in write order.
	Documents []string
}

// Run documents the modules named by roots and everything below them.
// Problems with single modules are recorded in diags; only a failure to load
// any root, a cancelled context or a Writer error abort the run.
func Run(ctx context.Context, roots []string, opts Options, w Writer, diags *diag.List) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	if opts.Reflector.Logger == nil {
		opts.Reflector.Logger = log
	}
	if diags == nil {
		diags = &diag.List{}
	}

	g, err := reflector.New(opts.Reflector, diags).Load(ctx, roots)
	if err != nil {
		return nil, err
	}

	paths := outpath.New(opts.Paths)
	var mods []*model.Module
	for _, m := range g.Modules() {
		if _, err := paths.Add(m.QualName(), m.Package); err != nil {
			diags.Add(diag.Diagnostic{
				Kind:    diag.OutputPathCollision,
				Module:  m.QualName(),
				Path:    m.Path,
				Message: err.Error(),
			})
			continue
		}
		mods = append(mods, m)
	}

	r := render.New(g, paths, opts.Render)
	res := &Result{Graph: g}
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p, _ := paths.Lookup(m.QualName())
		var buf bytes.Buffer
		r.Render(&buf, m)
		if err := w.Write(p, buf.Bytes()); err != nil {
			return res, errors.Wrapf(err, "write %s", p)
		}
		log.WithFields(logrus.Fields{"module": m.QualName(), "path": p}).Debug("wrote document")
		res.Documents = append(res.Documents, p)
	}

	if opts.Index {
		index := paths.InitFileName()
		if owner, ok := paths.Owner(index); ok {
			log.WithField("module", owner).Debug("root index owned by module, not writing table of contents")
			return res, nil
		}
		var buf bytes.Buffer
		r.RenderIndex(&buf, index)
		if err := w.Write(index, buf.Bytes()); err != nil {
			return res, errors.Wrapf(err, "write %s", index)
		}
		res.Documents = append(res.Documents, index)
	}
	return res, nil
}
