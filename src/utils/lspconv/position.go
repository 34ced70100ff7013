// Package lspconv converts between LSP positions and byte offsets. LSP
// positions count UTF-16 code units within a line, the default encoding of
// the protocol; offsets index bytes into the UTF-8 contents.
package lspconv

import (
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// utf16Len is the number of UTF-16 code units encoding r.
func utf16Len(r rune) uint32 {
	return uint32(len(utf16.Encode([]rune{r})))
}

// Offset converts a 0-based LSP position into a byte offset into contents.
// Positions past the end of a line or of the text clamp to the nearest valid
// offset.
func Offset(contents string, pos protocol.Position) int {
	line := uint32(0)
	offset := 0
	for line < pos.Line && offset < len(contents) {
		if contents[offset] == '\n' {
			line++
		}
		offset++
	}
	col := uint32(0)
	for col < pos.Character && offset < len(contents) && contents[offset] != '\n' {
		r, size := utf8.DecodeRuneInString(contents[offset:])
		col += utf16Len(r)
		offset += size
	}
	return offset
}

// Position converts a byte offset into a 0-based LSP position. An offset
// inside a multi-byte rune positions at the rune's start.
func Position(contents string, offset int) protocol.Position {
	if offset > len(contents) {
		offset = len(contents)
	}
	var line, character uint32
	for i := 0; i < offset; {
		if contents[i] == '\n' {
			line++
			character = 0
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(contents[i:])
		if i+size > offset {
			break
		}
		character += utf16Len(r)
		i += size
	}
	return protocol.Position{Line: line, Character: character}
}

// LineRange returns the whole-line range [line, line+1) starting at column 0,
// used for deleting a full source line.
func LineRange(line uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 0},
		End:   protocol.Position{Line: line + 1, Character: 0},
	}
}

// InsertAt returns an empty range anchored at the given position, used for
// pure text insertions.
func InsertAt(pos protocol.Position) protocol.Range {
	return protocol.Range{Start: pos, End: pos}
}
