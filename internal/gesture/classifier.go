// Package gesture turns per-hand pose categories into semantic tokens.
package gesture

// MaxHands is the number of hands a mapping key can describe.
const MaxHands = 2

// NoneLabel stands in for a hand the backend detected without a category.
const NoneLabel = "None"

// Token is the word or phrase a hand pose combination stands for.
type Token string

const (
	// NoGesture is the sentinel returned when nothing matches.
	NoGesture Token = ""
	// NoGestureMarker is the display form of NoGesture.
	NoGestureMarker Token = "인식된 수어 없음"
)

// IsEmpty reports whether t carries no recognized gesture.
func (t Token) IsEmpty() bool {
	return t == NoGesture || t == NoGestureMarker
}

// Classifier maps ordered hand labels to tokens using a MappingTable.
type Classifier struct {
	table *MappingTable
}

// NewClassifier creates a Classifier backed by table.
// A nil table yields a classifier that never matches.
func NewClassifier(table *MappingTable) *Classifier {
	return &Classifier{table: table}
}

// Table returns the mapping table in use.
func (c *Classifier) Table() *MappingTable {
	return c.table
}

// Classify returns the token for labels, given in detection order.
//
// Three keys are tried in order and the first hit wins:
//  1. exact: labels in detection order
//  2. reversed: labels in reverse detection order
//  3. sorted: labels in lexicographic order
//
// Exact-first lets "Open_Palm|Pointing_Up" and "Pointing_Up|Open_Palm"
// carry different meanings while the sorted key lets a symmetric pair be
// registered once. Labels beyond MaxHands are ignored.
func (c *Classifier) Classify(labels []string) Token {
	if c.table == nil || len(labels) == 0 {
		return NoGesture
	}
	if len(labels) > MaxHands {
		labels = labels[:MaxHands]
	}

	if len(labels) == 1 {
		if tok, ok := c.table.Lookup(labels[0]); ok {
			return tok
		}
		return NoGesture
	}

	a, b := labels[0], labels[1]

	if tok, ok := c.table.Lookup(a + KeyDelimiter + b); ok {
		return tok
	}
	if tok, ok := c.table.Lookup(b + KeyDelimiter + a); ok {
		return tok
	}

	// sorted; for a pair this coincides with one of the keys above
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	if tok, ok := c.table.Lookup(lo + KeyDelimiter + hi); ok {
		return tok
	}

	return NoGesture
}
