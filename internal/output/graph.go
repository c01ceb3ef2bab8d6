package output

import (
	"fmt"
	"io"

	"pysemver/internal/apigraph"
)

// GraphDump is the API graph of one package at one revision.
type GraphDump struct {
	Tool     Tool               `json:"tool" yaml:"tool"`
	Package  string             `json:"package" yaml:"package"`
	Revision Revision           `json:"revision" yaml:"revision"`
	Snapshot string             `json:"snapshot" yaml:"snapshot"`
	Objects  []*apigraph.Object `json:"objects" yaml:"objects"`
	Warnings []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewGraphDump wraps g for output. Synthetic objects are left out.
func NewGraphDump(tool Tool, pkg string, rev Revision, snapshot string, g *apigraph.Graph) *GraphDump {
	d := &GraphDump{
		Tool:     tool,
		Package:  pkg,
		Revision: rev,
		Snapshot: snapshot,
		Objects:  []*apigraph.Object{},
	}
	for _, obj := range g.Objects() {
		if !obj.Synthetic {
			d.Objects = append(d.Objects, obj)
		}
	}
	for _, w := range g.Warnings() {
		d.Warnings = append(d.Warnings, w.String())
	}
	return d
}

// WriteGraphHuman lists one object per line, indented by nesting depth.
func WriteGraphHuman(w io.Writer, d *GraphDump) error {
	if _, err := fmt.Fprintf(w, "%s at %s\n", d.Package, revisionLabel(d.Revision)); err != nil {
		return err
	}
	depth := make(map[string]int, len(d.Objects))
	for _, obj := range d.Objects {
		level := 0
		if p, ok := depth[obj.Parent]; ok {
			level = p + 1
		}
		depth[obj.QualifiedName] = level

		text := obj.Display()
		if obj.Kind == apigraph.KindModule {
			text = obj.QualifiedName
		}
		line := fmt.Sprintf("%*s%-9s %s", 2*level+2, "", obj.Kind, text)
		if obj.Visibility == apigraph.Private {
			line += "  (private)"
		}
		if obj.InheritedFrom != "" {
			line += "  (from " + obj.InheritedFrom + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, warn := range d.Warnings {
		if _, err := fmt.Fprintf(w, "note: %s\n", warn); err != nil {
			return err
		}
	}
	return nil
}
