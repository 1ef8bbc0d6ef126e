package reflector

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/agentflare-ai/pydocmd/internal/pysrc"
)

// parse reads and parses every unit with a source file. Per-file failures
// are stored on the unit; only cancellation is returned.
func (r *Reflector) parse(ctx context.Context, units []*unit) error {
	parsers := sync.Pool{New: func() any { return pysrc.NewParser() }}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.Jobs)
	for _, u := range units {
		if u.path == "" {
			u.file = &pysrc.File{}
			continue
		}
		u := u
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(u.path)
			if err != nil {
				u.err = errors.Wrap(err, "read source")
				return nil
			}
			p := parsers.Get().(*pysrc.Parser)
			defer parsers.Put(p)
			f, err := p.Parse(ctx, src)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				u.err = err
				return nil
			}
			u.file = f
			return nil
		})
	}
	return eg.Wait()
}
