package diagfmt

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"capsule/internal/diag"
	"capsule/internal/source"
)

// fixPreview is the block of lines a fix touches, before and after.
type fixPreview struct {
	before []string
	after  []string
}

// buildFixPreview applies every edit of fix to the smallest run of whole
// lines covering them. All edits must target one file and must not overlap.
func buildFixPreview(fs *source.FileSet, fix *diag.Fix) (fixPreview, error) {
	if len(fix.Edits) == 0 {
		return fixPreview{}, fmt.Errorf("fix has no edits")
	}
	fileID := fix.Edits[0].Span.File
	if int(fileID) >= fs.Len() {
		return fixPreview{}, fmt.Errorf("file %d not found", fileID)
	}
	file := fs.Get(fileID)
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixPreview{}, fmt.Errorf("content length: %w", err)
	}

	edits := slices.Clone(fix.Edits)
	slices.SortFunc(edits, func(a, b diag.TextEdit) int { return int(a.Span.Start) - int(b.Span.Start) })
	lo, hi := edits[0].Span.Start, edits[0].Span.End
	for i, e := range edits {
		if e.Span.File != fileID {
			return fixPreview{}, fmt.Errorf("fix spans several files")
		}
		if e.Span.End > size || e.Span.Start > e.Span.End {
			return fixPreview{}, fmt.Errorf("edit %v is outside the file", e.Span)
		}
		if i > 0 && e.Span.Start < edits[i-1].Span.End {
			return fixPreview{}, fmt.Errorf("edits %v and %v overlap", edits[i-1].Span, e.Span)
		}
		hi = max(hi, e.Span.End)
	}

	start := lineStart(file.Content, lo)
	end := lineEnd(file.Content, hi, size)
	original := file.Content[start:end]

	var after strings.Builder
	cursor := start
	for _, e := range edits {
		after.Write(file.Content[cursor:e.Span.Start])
		after.WriteString(e.NewText)
		cursor = e.Span.End
	}
	after.Write(file.Content[cursor:end])

	return fixPreview{
		before: previewLines(string(original)),
		after:  previewLines(after.String()),
	}, nil
}

func previewLines(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// lineStart returns the offset just past the newline before off.
func lineStart(content []byte, off uint32) uint32 {
	for off > 0 && content[off-1] != '\n' {
		off--
	}
	return off
}

// lineEnd returns the offset just past the newline at or after off.
func lineEnd(content []byte, off, size uint32) uint32 {
	for off < size {
		if content[off] == '\n' {
			return off + 1
		}
		off++
	}
	return size
}
