package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	KwFn     // fn
	KwLet    // let
	KwMut    // mut
	KwReturn // return
	KwType   // type
	KwCopy   // copy
	KwMove   // move
	KwSelf   // self
	KwImpl   // impl
	KwTrue   // true
	KwFalse  // false

	IntLit
	FloatLit
	StringLit

	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	EqEq          // ==
	Bang          // !
	BangEq        // !=
	Lt            // <
	LtEq          // <=
	Gt            // >
	GtEq          // >=
	Amp           // &
	Pipe          // |
	AndAnd        // &&
	OrOr          // ||
	Colon         // :
	Semicolon     // ;
	Comma         // ,
	Dot           // .
	Arrow         // ->
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }

	kindCount
)

var kindNames = [kindCount]string{
	Invalid: "Invalid", EOF: "EOF", Ident: "Ident",
	KwFn: "fn", KwLet: "let", KwMut: "mut", KwReturn: "return", KwType: "type",
	KwCopy: "copy", KwMove: "move", KwSelf: "self", KwImpl: "impl",
	KwTrue: "true", KwFalse: "false",
	IntLit: "IntLit", FloatLit: "FloatLit", StringLit: "StringLit",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=",
	SlashAssign: "/=", PercentAssign: "%=",
	EqEq: "==", Bang: "!", BangEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	Amp: "&", Pipe: "|", AndAnd: "&&", OrOr: "||",
	Colon: ":", Semicolon: ";", Comma: ",", Dot: ".", Arrow: "->",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsAssign reports whether k is `=` or a compound assignment operator.
func (k Kind) IsAssign() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign:
		return true
	}
	return false
}
