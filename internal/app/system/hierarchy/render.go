package hierarchy

import (
	"fmt"
	"io"
	"strings"
)

// Render writes f as an indented text outline.
func Render(w io.Writer, f Forest) error {
	p := &printer{w: w}
	p.line(0, "Admins (%d)", len(f.Admins))
	for _, a := range f.Admins {
		p.line(1, "%s [%d]", a.Name, a.ID)
	}
	p.line(0, "Trees (%d)", len(f.Trees))
	for _, t := range f.Trees {
		p.node(1, t)
	}
	if len(f.Unassigned) > 0 {
		p.line(0, "Unassigned (%d)", len(f.Unassigned))
		for _, m := range f.Unassigned {
			p.line(1, "%s [%d]", m.Name, m.ID)
		}
	}
	for _, a := range f.Anomalies {
		p.line(0, "! %s %v", a.Kind, a.MemberIDs)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (p *printer) node(depth int, n *Node) {
	p.line(depth, "%s [%d]", n.Leader.Name, n.Leader.ID)
	for _, c := range n.Leaders {
		p.node(depth+1, c)
	}
	if n.Members != nil {
		p.line(depth+1, "members (%d)", n.Members.Count)
		for _, m := range n.Members.Members {
			p.line(depth+2, "%s [%d]", m.Name, m.ID)
		}
	}
}
