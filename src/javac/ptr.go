package javac

import "strings"

// Ptr is a stable, serializable pointer to a program element, usable across
// separate compilations and sessions. The string form is
// "pkg.Type#member(erasedParams)" for members and "pkg.Type" for types.
type Ptr string

// IsMethod reports whether the pointer names a method or constructor.
func (p Ptr) IsMethod() bool {
	hash := strings.IndexByte(string(p), '#')
	if hash < 0 {
		return false
	}
	return strings.IndexByte(string(p[hash:]), '(') >= 0
}

func (p Ptr) String() string {
	return string(p)
}

// CompletionData rides on a completion item and keys its deferred resolution.
type CompletionData struct {
	Ptr Ptr `json:"ptr"`
	// PlusOverloads counts additional overloads that matched during the
	// original completion; shown as " (+N overloads)" in the resolved detail.
	PlusOverloads int `json:"plusOverloads"`
}
