// Package textscan classifies completion intent by scanning buffer text
// backward from the cursor. It deliberately has no dependencies and no
// tokenizer: direct character-class scans are fast and are all this narrow
// task needs.
//
// The character classes are load-bearing. An identifier character is a Java
// identifier part: a unicode letter or digit, '_' or '$'. Whitespace is
// unicode whitespace.
package textscan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind names one completion intent. Exactly one applies per request.
type Kind int

const (
	// KindKeyword is the fallback: the cursor is typing a fresh token.
	KindKeyword Kind = iota
	// KindMemberSelect is "expr." or "expr.partial".
	KindMemberSelect
	// KindMemberReference is "expr::" or "expr::partial".
	KindMemberReference
	// KindPartialAnnotation is "@Partial".
	KindPartialAnnotation
	// KindPartialCase is a partial label after the case keyword.
	KindPartialCase
	// KindPartialIdentifier is a bare partial identifier.
	KindPartialIdentifier
)

// Context is the classified completion intent at a cursor.
type Context struct {
	Kind Kind
	// Offset is the dot offset for member select, the offset where "::"
	// begins for member reference, and the '@' offset for partial
	// annotation. Unused for other kinds.
	Offset int
	// PartialName is the trailing partial token, where the kind has one.
	PartialName string
}

// IsIdentifierPart reports whether r can appear inside a Java identifier.
func IsIdentifierPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}

func isQualifiedIdentifierPart(r rune) bool {
	return IsIdentifierPart(r) || r == '.'
}

// prev decodes the rune ending just before offset i and returns it with its
// start index. Returns utf8.RuneError with start -1 at the start of text.
func prev(contents string, i int) (rune, int) {
	if i <= 0 {
		return utf8.RuneError, -1
	}
	r, size := utf8.DecodeLastRuneInString(contents[:i])
	return r, i - size
}

// skipBackward moves i backward over runes matching class and returns the new
// offset.
func skipBackward(contents string, i int, class func(rune) bool) int {
	for {
		r, start := prev(contents, i)
		if start < 0 || !class(r) {
			return i
		}
		i = start
	}
}

// MemberSelect reports the offset of the dot in "expr.partial" when the
// cursor sits after the partial identifier, or -1. Whitespace between the dot
// and the partial, including newlines, is tolerated.
func MemberSelect(contents string, cursor int) int {
	i := skipBackward(contents, cursor, IsIdentifierPart)
	i = skipBackward(contents, i, unicode.IsSpace)
	r, start := prev(contents, i)
	if start < 0 || r != '.' {
		return -1
	}
	return start
}

// MemberReference reports the offset where "::" begins in "expr::partial"
// when the cursor sits after the partial identifier, or -1. A lone ':' does
// not match.
func MemberReference(contents string, cursor int) int {
	i := skipBackward(contents, cursor, IsIdentifierPart)
	if i < 2 || !strings.HasSuffix(contents[:i], "::") {
		return -1
	}
	return i - 2
}

// PartialAnnotation reports the offset of the '@' in "@partial.Name" when the
// cursor sits after an unbroken run of identifier or dot characters, or -1.
func PartialAnnotation(contents string, cursor int) int {
	i := skipBackward(contents, cursor, isQualifiedIdentifierPart)
	r, start := prev(contents, i)
	if start < 0 || r != '@' {
		return -1
	}
	return start
}

// IsPartialCase reports whether the cursor sits after a partial identifier
// preceded by the case keyword.
func IsPartialCase(contents string, cursor int) bool {
	i := skipBackward(contents, cursor, IsIdentifierPart)
	i = skipBackward(contents, i, unicode.IsSpace)
	return i >= 4 && contents[i-4:i] == "case"
}

// PartialName returns the trailing identifier run immediately before the
// cursor.
func PartialName(contents string, cursor int) string {
	start := skipBackward(contents, cursor, IsIdentifierPart)
	return contents[start:cursor]
}

// EndsInIdentifier reports whether the character immediately before the
// cursor is an identifier character.
func EndsInIdentifier(contents string, cursor int) bool {
	r, start := prev(contents, cursor)
	return start >= 0 && IsIdentifierPart(r)
}

// HasParen reports whether the character at the cursor is an opening paren.
// Completion items add their own parens only when it is not.
func HasParen(contents string, cursor int) bool {
	return cursor < len(contents) && contents[cursor] == '('
}

// RestOfLine returns the text between the cursor and the end of its line.
func RestOfLine(contents string, cursor int) string {
	if cursor >= len(contents) {
		return ""
	}
	end := strings.IndexByte(contents[cursor:], '\n')
	if end == -1 {
		return contents[cursor:]
	}
	return contents[cursor : cursor+end]
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Classify determines the completion intent at the cursor. Checks run in a
// fixed order and the first match wins: member select and member reference
// are distinguishable only by '.' vs "::", and partial annotation must come
// before partial identifier because "@Foo" also ends in identifier
// characters. isIdentifierNode consults the parser for whether the enclosing
// syntax node at the cursor is identifier-like.
func Classify(contents string, cursor int, isIdentifierNode func(offset int) bool) Context {
	if dot := MemberSelect(contents, cursor); dot != -1 {
		return Context{Kind: KindMemberSelect, Offset: dot, PartialName: PartialName(contents, cursor)}
	}
	if ref := MemberReference(contents, cursor); ref != -1 {
		return Context{Kind: KindMemberReference, Offset: ref, PartialName: PartialName(contents, cursor)}
	}
	if at := PartialAnnotation(contents, cursor); at != -1 {
		return Context{Kind: KindPartialAnnotation, Offset: at, PartialName: contents[at+1 : cursor]}
	}
	if IsPartialCase(contents, cursor) {
		return Context{Kind: KindPartialCase, PartialName: PartialName(contents, cursor)}
	}
	if EndsInIdentifier(contents, cursor) && isIdentifierNode != nil && isIdentifierNode(cursor) {
		return Context{Kind: KindPartialIdentifier, PartialName: PartialName(contents, cursor)}
	}
	return Context{Kind: KindKeyword}
}
