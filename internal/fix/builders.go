package fix

import (
	"capsule/internal/diag"
	"capsule/internal/source"
)

// AddMoveID identifies the fix that prefixes a closure with `move`.
const AddMoveID = "closure.add-move"

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func build(title string, kind diag.FixKind, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Kind:          kind,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         edits,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates fix that inserts text at the start of at.
func InsertText(title string, at source.Span, text, guard string, opts ...Option) diag.Fix {
	at = at.ZeroideToStart()
	return build(title, diag.FixKindQuickFix, []diag.TextEdit{{Span: at, NewText: text, OldText: guard}}, opts)
}

// DeleteSpan removes text covered by span.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return build(title, diag.FixKindQuickFix, []diag.TextEdit{{Span: span, OldText: expect}}, opts)
}

// ReplaceSpan replaces text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return build(title, diag.FixKindQuickFix, []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}}, opts)
}

// AddMove turns the closure starting at bar into a `move` closure.
func AddMove(bar source.Span) diag.Fix {
	return InsertText("add `move` to capture by value", bar, "move ", "",
		WithID(AddMoveID),
		WithApplicability(diag.FixApplicabilitySafeWithHeuristics),
		Preferred(),
	)
}
