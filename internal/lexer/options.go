package lexer

import (
	"capsule/internal/diag"
	"capsule/internal/source"
)

// DefaultMaxTokenLength bounds identifiers, numbers and strings.
const DefaultMaxTokenLength = 1 << 16

type Options struct {
	// Reporter may be nil: errors are dropped but lexing continues.
	Reporter diag.Reporter
	// MaxTokenLength of zero means DefaultMaxTokenLength.
	MaxTokenLength uint32
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

func (lx *Lexer) maxTokenLength() uint32 {
	if lx.opts.MaxTokenLength == 0 {
		return DefaultMaxTokenLength
	}
	return lx.opts.MaxTokenLength
}

// checkLength reports tokens longer than the configured limit.
func (lx *Lexer) checkLength(sp source.Span) {
	if sp.Len() > lx.maxTokenLength() {
		lx.errLex(diag.LexTokenTooLong, sp, "token exceeds maximum length")
	}
}
