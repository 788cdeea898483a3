package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dusk-indust/pycleaner/internal/engine"
)

// Sections selects the blocks of a text report.
type Sections struct {
	Libraries   bool
	Scripts     bool
	Hints       bool
	External    bool
	Ambiguous   bool
	Unparseable bool
	Clusters    bool
}

// AllSections enables every block.
func AllSections() Sections {
	return Sections{
		Libraries:   true,
		Scripts:     true,
		Hints:       true,
		External:    true,
		Ambiguous:   true,
		Unparseable: true,
		Clusters:    true,
	}
}

// WriteText renders the report as terminal tables followed by a summary.
func WriteText(w io.Writer, r *engine.Report, sections Sections, absPaths bool) error {
	e := BuildExport(r, absPaths)

	if sections.Libraries {
		renderList(w, "Libraries", e.Libraries)
	}
	if sections.Scripts {
		renderList(w, "Scripts", e.Scripts)
	}
	if sections.Clusters && len(e.ScriptClusters) > 0 {
		t := newTable(w, "Script clusters")
		t.AppendHeader(table.Row{"Cluster", "Members"})
		for _, c := range e.ScriptClusters {
			t.AppendRow(table.Row{c.Name, strings.Join(c.Members, "\n")})
		}
		t.Render()
		fmt.Fprintln(w)
	}
	if sections.Hints && len(e.Hints) > 0 {
		t := newTable(w, "Might be found")
		t.AppendHeader(table.Row{"Module", "From", "One of"})
		for _, h := range e.Hints {
			t.AppendRow(table.Row{h.Reference, h.Importer, strings.Join(h.Candidates, "\n")})
		}
		t.Render()
		fmt.Fprintln(w)
	}
	if sections.External && len(e.External) > 0 {
		t := newTable(w, "Not found")
		t.AppendHeader(table.Row{"Module", "From", "Line"})
		for _, x := range e.External {
			t.AppendRow(table.Row{x.Reference, x.Importer, x.Line})
		}
		t.Render()
		fmt.Fprintln(w)
	}
	if sections.Ambiguous && len(e.Ambiguous) > 0 {
		t := newTable(w, "Ambiguous")
		t.AppendHeader(table.Row{"Module", "From", "Candidates"})
		for _, a := range e.Ambiguous {
			t.AppendRow(table.Row{a.Reference, a.Importer, strings.Join(a.Candidates, "\n")})
		}
		t.Render()
		fmt.Fprintln(w)
	}
	if sections.Unparseable && len(e.Unparseable) > 0 {
		t := newTable(w, "Unparseable")
		t.AppendHeader(table.Row{"File", "Reason"})
		for _, u := range e.Unparseable {
			t.AppendRow(table.Row{u.Path, u.Reason})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprintf(w, "There are %s files that can be considered as libraries, and %s as scripts\n",
		humanize.Comma(int64(len(e.Libraries))), humanize.Comma(int64(len(e.Scripts))))
	return err
}

// WriteExplanation renders an Explanation.
func WriteExplanation(w io.Writer, root string, x *engine.Explanation, absPaths bool) error {
	p := pathMapper(root, absPaths)

	fmt.Fprintf(w, "%s: %s\n", p.one(x.File), x.Role)
	if len(x.Chain) > 0 {
		fmt.Fprintf(w, "  reached via: %s\n", strings.Join(p.all(x.Chain), " -> "))
	}
	if len(x.Importers) > 0 {
		fmt.Fprintf(w, "  imported by: %s\n", strings.Join(p.all(x.Importers), ", "))
	}
	_, err := fmt.Fprintf(w, "  imports: %d project file(s)\n", len(x.Imports))
	return err
}

func renderList(w io.Writer, title string, files []string) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"#", "File"})
	for i, f := range files {
		t.AppendRow(table.Row{i + 1, f})
	}
	t.Render()
	fmt.Fprintln(w)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(strings.ToUpper(title))
	t.SetStyle(table.StyleLight)
	return t
}
