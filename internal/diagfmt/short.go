package diagfmt

import (
	"io"

	"capsule/internal/diag"
	"capsule/internal/source"
)

// Short writes one line per diagnostic:
//
//	<severity> <CODE> <path>:<line>:<col> <message>
//
// With withNotes each note follows its diagnostic as a "note" line.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, withNotes bool) error {
	out := diag.FormatShortDiagnostics(bag.Items(), fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
