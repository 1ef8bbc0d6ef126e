package render

import (
	"fmt"
	"io"

	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
)

// RenderIndex writes a table of contents for the graph's root modules into
// the document at path, which no module owns.
func (r *Renderer) RenderIndex(w io.Writer, path string) {
	fmt.Fprintf(w, "# API reference\n\n")
	if len(r.graph.Roots) == 0 {
		return
	}
	fmt.Fprintf(w, "## Modules\n\n")
	for _, root := range r.graph.Roots {
		fmt.Fprintln(w, bulletLine(r.indexTitle(path, root), summaryText(root.Doc())))
	}
	fmt.Fprintln(w)
}

func (r *Renderer) indexTitle(from string, m *model.Module) string {
	to, ok := r.paths.Lookup(m.QualName())
	if !ok {
		return code(m.QualName())
	}
	return "[" + m.QualName() + "](" + outpath.Rel(from, to, "") + ")"
}
