package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"capsule/internal/ast"
	"capsule/internal/source"
)

// CheckSpanInvariants checks the spans of a parsed file:
// the file span is non-empty and inside the content, every item span is
// non-empty and inside the file span, and items appear in source order
// without overlapping.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node %d not found", fileID)
	}
	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to file %d, want %d", f.Span.File, sf.ID)
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length: %w", err)
	}
	if f.Span.End > size {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, size)
	}

	var prev source.Span
	for i, id := range f.Items {
		item := b.Items.Get(id)
		if item == nil {
			return fmt.Errorf("nil item for id=%d", id)
		}
		sp := item.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("item %d has empty span %v", i, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("item %d span points to file %d, want %d", i, sp.File, sf.ID)
		}
		if sp.Start < f.Span.Start || sp.End > f.Span.End {
			return fmt.Errorf("item %d span %v is outside file span %v", i, sp, f.Span)
		}
		if i > 0 && sp.Start < prev.End {
			return fmt.Errorf("item %d span %v overlaps previous %v", i, sp, prev)
		}
		prev = sp
	}
	return nil
}
