// Package diag defines the diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     lexer, parser, scope resolver and the closure elaboration passes.
//   - Offer light-weight utilities (Reporter, Bag) so producers emit
//     diagnostics without coupling to storage or formatting.
//   - Model fix suggestions as structured edits that the fix engine can apply.
//
// # Scope
//
// Package diag does no formatting or IO. Rendering lives in internal/diagfmt,
// applying fixes lives in internal/fix.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: numeric identifier with a stable prefixed form (SEM3101).
//   - Message: short and actionable.
//   - Primary: the source.Span pointing at the issue.
//   - Notes: secondary spans such as "captured here".
//   - Fixes: Fix records with TextEdits; OldText guards the edited context.
//
// # Emitting diagnostics
//
// Phases hold a Reporter. ReportError / ReportWarning / ReportInfo return a
// ReportBuilder; chain WithNote / WithFixSuggestion and finish with Emit.
// BagReporter collects into a Bag, which supports sorting, deduplication and
// filtering. DedupReporter suppresses repeats when a phase may visit the same
// node twice.
package diag
