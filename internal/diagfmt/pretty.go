package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"capsule/internal/diag"
	"capsule/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note, add, del *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		path:   mk(color.FgWhite, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed),
		note:   mk(color.FgCyan),
		add:    mk(color.FgGreen),
		del:    mk(color.FgRed),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty renders diagnostics for humans. Items are printed in bag order,
// so callers sort the bag first. Each diagnostic is printed as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline, then notes and fixes
// when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	start, _ := fs.Resolve(d.Primary)
	path := displayPath(fs, d.Primary.File, opts.PathMode)
	msg := d.Message
	if opts.Width > 0 {
		msg = runewidth.Truncate(msg, int(opts.Width), "…")
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		pal.path.Sprintf("%s:%d:%d", path, start.Line, start.Col),
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		pal.code.Sprint(d.Code.ID()),
		msg)
	writeSnippet(w, fs, d.Primary, int(opts.Context), pal)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			npath := displayPath(fs, n.Span.File, opts.PathMode)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", pal.note.Sprint("note:"), npath, ns.Line, ns.Col, n.Msg)
		}
	}
	if opts.ShowFixes {
		for i, fix := range d.Fixes {
			fmt.Fprintf(w, "  %s %s (%s, %s)", pal.note.Sprintf("fix #%d:", i+1), fix.Title, fix.Kind, fix.Applicability)
			if fix.ID != "" {
				fmt.Fprintf(w, " id=%s", fix.ID)
			}
			fmt.Fprintln(w)
			for _, edit := range fix.Edits {
				es, ee := fs.Resolve(edit.Span)
				fmt.Fprintf(w, "    edit %s:%d:%d-%d:%d apply=%q\n",
					displayPath(fs, edit.Span.File, opts.PathMode), es.Line, es.Col, ee.Line, ee.Col, edit.NewText)
			}
			if !opts.ShowPreview || len(fix.Edits) == 0 {
				continue
			}
			preview, err := buildFixPreview(fs, &d.Fixes[i])
			if err != nil {
				fmt.Fprintf(w, "    preview unavailable: %v\n", err)
				continue
			}
			fmt.Fprintln(w, "    preview:")
			for _, l := range preview.before {
				fmt.Fprintf(w, "      %s\n", pal.del.Sprint("- "+l))
			}
			for _, l := range preview.after {
				fmt.Fprintf(w, "      %s\n", pal.add.Sprint("+ "+l))
			}
		}
	}
}

// writeSnippet prints the primary line, up to context lines before it and
// an underline covering the span on the first line.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, context int, pal palette) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	first := max(int(start.Line)-context, 1)
	width := len(fmt.Sprint(start.Line))
	for ln := first; ln <= int(start.Line); ln++ {
		line := strings.ReplaceAll(f.GetLine(uint32(ln)), "\t", "    ")
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprintf("%*d |", width, ln), line)
	}

	line := f.GetLine(start.Line)
	col := int(start.Col) - 1
	col = min(col, len(line))
	lead := runewidth.StringWidth(strings.ReplaceAll(line[:col], "\t", "    "))
	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		endCol := min(int(end.Col)-1, len(line))
		length = max(runewidth.StringWidth(line[col:endCol]), 1)
	}
	underline := "^" + strings.Repeat("~", length-1)
	fmt.Fprintf(w, " %s %s%s\n", pal.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", lead), pal.caret.Sprint(underline))
}
