package textscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atCursor splits a marked string like "foo.|bar" into contents and the
// cursor offset where '|' was.
func atCursor(marked string) (string, int) {
	i := strings.IndexByte(marked, '|')
	if i < 0 {
		panic("test input has no cursor marker: " + marked)
	}
	return marked[:i] + marked[i+1:], i
}

func TestMemberSelect(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   int
	}{
		{"partial after dot", "foo.ba|", 3},
		{"cursor right after dot", "foo.|", 3},
		{"space between dot and partial", "foo. ba|", 3},
		{"newline between dot and partial", "foo.\n  ba|", 3},
		{"chained selects", "a.b.c|", 3},
		{"no dot", "foo|", -1},
		{"empty buffer", "|", -1},
		{"dot at buffer start", ".|", 0},
		{"member reference is not a select", "foo::ba|", -1},
		{"statement boundary", "x; ba|", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, cursor := atCursor(tt.marked)
			assert.Equal(t, tt.want, MemberSelect(contents, cursor))
		})
	}
}

func TestMemberReference(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   int
	}{
		{"partial after colons", "foo::ba|", 3},
		{"cursor right after colons", "foo::|", 3},
		{"colons at buffer start", "::|", 0},
		{"single colon is not a reference", "a:b|", -1},
		{"dot is not a reference", "foo.ba|", -1},
		{"no colons", "foo|", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, cursor := atCursor(tt.marked)
			assert.Equal(t, tt.want, MemberReference(contents, cursor))
		})
	}
}

func TestPartialAnnotation(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   int
	}{
		{"simple annotation", "@Over|", 0},
		{"qualified annotation", "@org.junit.Test|", 0},
		{"cursor right after at", "@|", 0},
		{"mid buffer", "class A { @Ove|", 10},
		{"no at sign", "Over|", -1},
		{"space breaks the run", "@ Over|", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, cursor := atCursor(tt.marked)
			assert.Equal(t, tt.want, PartialAnnotation(contents, cursor))
		})
	}
}

func TestIsPartialCase(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   bool
	}{
		{"partial label", "case Mon|", true},
		{"cursor right after keyword", "case |", true},
		{"newline after keyword", "case\n  Mon|", true},
		{"no case keyword", "switch (day) { Mon|", false},
		{"keyword too close to start", "cas|", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, cursor := atCursor(tt.marked)
			assert.Equal(t, tt.want, IsPartialCase(contents, cursor))
		})
	}
}

func TestPartialName(t *testing.T) {
	contents, cursor := atCursor("foo.ba|r")
	assert.Equal(t, "ba", PartialName(contents, cursor))

	contents, cursor = atCursor("x = $_hi9|")
	assert.Equal(t, "$_hi9", PartialName(contents, cursor))

	contents, cursor = atCursor("x + |")
	assert.Equal(t, "", PartialName(contents, cursor))
}

func TestEndsInIdentifier(t *testing.T) {
	contents, cursor := atCursor("foo|")
	assert.True(t, EndsInIdentifier(contents, cursor))

	contents, cursor = atCursor("foo.|")
	assert.False(t, EndsInIdentifier(contents, cursor))

	contents, cursor = atCursor("|")
	assert.False(t, EndsInIdentifier(contents, cursor))
}

func TestHasParen(t *testing.T) {
	contents, cursor := atCursor("foo|()")
	assert.True(t, HasParen(contents, cursor))

	contents, cursor = atCursor("foo|;")
	assert.False(t, HasParen(contents, cursor))

	contents, cursor = atCursor("foo|")
	assert.False(t, HasParen(contents, cursor))
}

func TestRestOfLine(t *testing.T) {
	contents, cursor := atCursor("int x = foo|.bar();\nint y;")
	assert.Equal(t, ".bar();", RestOfLine(contents, cursor))

	contents, cursor = atCursor("foo|")
	assert.Equal(t, "", RestOfLine(contents, cursor))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  \t"))
	assert.False(t, IsBlank(" x "))
}

func TestClassifyOrder(t *testing.T) {
	always := func(int) bool { return true }
	never := func(int) bool { return false }

	tests := []struct {
		name      string
		marked    string
		atNode    func(int) bool
		wantKind  Kind
		wantName  string
		hasOffset bool
	}{
		{"member select wins over identifier", "foo.ba|", always, KindMemberSelect, "ba", true},
		{"member reference", "foo::ba|", always, KindMemberReference, "ba", true},
		{"annotation wins over identifier", "@Ove|", always, KindPartialAnnotation, "Ove", true},
		{"case label", "case Mon|", always, KindPartialCase, "Mon", false},
		{"identifier needs an identifier node", "Stri|", always, KindPartialIdentifier, "Stri", false},
		{"non-identifier node falls back to keyword", "Stri|", never, KindKeyword, "", false},
		{"fresh token falls back to keyword", "class A { |", always, KindKeyword, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, cursor := atCursor(tt.marked)
			ctx := Classify(contents, cursor, tt.atNode)
			require.Equal(t, tt.wantKind, ctx.Kind)
			assert.Equal(t, tt.wantName, ctx.PartialName)
			if tt.hasOffset {
				assert.GreaterOrEqual(t, ctx.Offset, 0)
			}
		})
	}
}

func TestClassifyMemberSelectOffset(t *testing.T) {
	contents, cursor := atCursor("list.\n    stre|")
	ctx := Classify(contents, cursor, nil)
	require.Equal(t, KindMemberSelect, ctx.Kind)
	assert.Equal(t, 4, ctx.Offset)
	assert.Equal(t, "stre", ctx.PartialName)
}

func TestClassifyNilNodeCheck(t *testing.T) {
	contents, cursor := atCursor("Stri|")
	ctx := Classify(contents, cursor, nil)
	assert.Equal(t, KindKeyword, ctx.Kind)
}
