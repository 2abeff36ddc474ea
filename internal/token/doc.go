// Package token defines lexical token kinds and trivia for capsule sources.
// Invariants:
//   - Token.Text is a slice of the original source, except identifiers that
//     were NFC-normalised by the lexer.
//   - Token.Span covers the original bytes of the token.
//   - `||` is a single OrOr token; the parser splits it when it opens an
//     empty closure parameter list.
//   - Builtin type names and the Fn/FnMut/FnOnce bounds are identifiers,
//     recognised by the type layer.
package token
