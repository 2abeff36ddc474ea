package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexTokenTooLong             Code = 1005

	// Syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnclosedDelimiter  Code = 2002
	SynUnclosedParen      Code = 2006
	SynUnclosedBrace      Code = 2007
	SynExpectSemicolon    Code = 2012
	SynTypeExpectBody     Code = 2019
	SynTypeFieldConflict  Code = 2021
	SynUnexpectedTopLevel Code = 2101
	SynExpectIdentifier   Code = 2102
	SynExpectType         Code = 2202
	SynExpectExpression   Code = 2203
	SynExpectColon        Code = 2204
	SynUnexpectedModifier Code = 2205

	// Semantic
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaDuplicateSymbol  Code = 3002
	SemaShadowSymbol     Code = 3004
	SemaUnresolvedSymbol Code = 3005
	SemaUnknownType      Code = 3006
	SemaUnknownField     Code = 3007
	SemaReceiverAssumed  Code = 3008
	SemaAssignImmutable  Code = 3009
	SemaNotCallable      Code = 3010

	// Closure capture checks
	SemaCaptureUseAfterMove      Code = 3101
	SemaCaptureAliasing          Code = 3102
	SemaCaptureReentrantCall     Code = 3103
	SemaCaptureDoubleCallOnce    Code = 3104
	SemaCaptureIncompatibleTrait Code = 3105
	SemaCaptureNotFnPointer      Code = 3106
	SemaCaptureEscapingBorrow    Code = 3107

	// I/O
	IOLoadFileError Code = 4001

	// Project / configuration
	ProjInfo          Code = 5000
	ProjInvalidConfig Code = 5001
	ProjUnknownKey    Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                  "Unknown error",
	LexInfo:                      "Lexical information",
	LexUnknownChar:               "Unknown character",
	LexUnterminatedString:        "Unterminated string",
	LexUnterminatedBlockComment:  "Unterminated block comment",
	LexBadNumber:                 "Bad number",
	LexTokenTooLong:              "Token too long",
	SynInfo:                      "Syntax information",
	SynUnexpectedToken:           "Unexpected token",
	SynUnclosedDelimiter:         "Unclosed delimiter",
	SynUnclosedParen:             "Unclosed parenthesis",
	SynUnclosedBrace:             "Unclosed brace",
	SynExpectSemicolon:           "Expect semicolon",
	SynTypeExpectBody:            "Expected type body",
	SynTypeFieldConflict:         "Duplicate field",
	SynUnexpectedTopLevel:        "Unexpected top level",
	SynExpectIdentifier:          "Expected identifier",
	SynExpectType:                "Expected type",
	SynExpectExpression:          "Expected expression",
	SynExpectColon:               "Expected colon",
	SynUnexpectedModifier:        "Unexpected modifier",
	SemaInfo:                     "Semantic information",
	SemaError:                    "Semantic error",
	SemaDuplicateSymbol:          "Duplicate symbol",
	SemaShadowSymbol:             "Shadowed symbol",
	SemaUnresolvedSymbol:         "Unresolved symbol",
	SemaUnknownType:              "Unknown type",
	SemaUnknownField:             "Unknown field",
	SemaReceiverAssumed:          "Receiver access assumed",
	SemaAssignImmutable:          "Assignment to immutable binding",
	SemaNotCallable:              "Value is not callable",
	SemaCaptureUseAfterMove:      "Use after move into closure",
	SemaCaptureAliasing:          "Conflicting closure captures",
	SemaCaptureReentrantCall:     "Reentrant call of FnMut closure",
	SemaCaptureDoubleCallOnce:    "FnOnce closure called twice",
	SemaCaptureIncompatibleTrait: "Closure trait incompatible with call site",
	SemaCaptureNotFnPointer:      "Capturing closure used as function pointer",
	SemaCaptureEscapingBorrow:    "Closure borrow outlives captured binding",
	IOLoadFileError:              "I/O load file error",
	ProjInfo:                     "Project information",
	ProjInvalidConfig:            "Invalid configuration",
	ProjUnknownKey:               "Unknown configuration key",
	ObsInfo:                      "Observability information",
	ObsTimings:                   "Pipeline timings",
}

// ID renders the stable prefixed identifier, e.g. SEM3101.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
