package token

var keywords = map[string]Kind{
	"fn":     KwFn,
	"let":    KwLet,
	"mut":    KwMut,
	"return": KwReturn,
	"type":   KwType,
	"copy":   KwCopy,
	"move":   KwMove,
	"self":   KwSelf,
	"impl":   KwImpl,
	"true":   KwTrue,
	"false":  KwFalse,
}

// LookupKeyword is case-sensitive: only lowercase spellings are keywords.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
