package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, entries ...Entry) *MappingTable {
	t.Helper()
	table, err := NewMappingTable("test", "", "", entries)
	require.NoError(t, err)
	return table
}

func koBasic(t *testing.T) *Classifier {
	t.Helper()
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	table, err := reg.Get("ko-basic")
	require.NoError(t, err)
	return NewClassifier(table)
}

func TestClassifier_KoreanTable(t *testing.T) {
	c := koBasic(t)

	tests := []struct {
		name   string
		labels []string
		want   Token
	}{
		{"no hands", nil, NoGesture},
		{"single numeral", []string{"Pointing_Up"}, "1"},
		{"single meaning", []string{"Open_Palm"}, "멈춰"},
		{"five then one is six", []string{"Open_Palm", "Pointing_Up"}, "6"},
		{"one then five is question", []string{"Pointing_Up", "Open_Palm"}, "질문"},
		{"five then two is seven", []string{"Open_Palm", "Victory"}, "7"},
		{"two then five is thanks", []string{"Victory", "Open_Palm"}, "고마워"},
		{"eight either order", []string{"Three", "Open_Palm"}, "8"},
		{"nine either order", []string{"Four", "Open_Palm"}, "9"},
		{"thumb up then palm via reversed key", []string{"Thumb_Up", "Open_Palm"}, "괜찮아"},
		{"fist then palm", []string{"Closed_Fist", "Open_Palm"}, "도와줘"},
		{"palm then fist via reversed key", []string{"Open_Palm", "Closed_Fist"}, "도와줘"},
		{"same pose twice", []string{"Closed_Fist", "Closed_Fist"}, "화이팅"},
		{"unknown combination", []string{"Thumb_Down", "Victory"}, NoGesture},
		{"placeholder label", []string{"None"}, NoGesture},
		{"placeholder with known pose", []string{"Open_Palm", "None"}, NoGesture},
		{"extra hands ignored", []string{"Victory", "Victory", "Open_Palm"}, "축하해"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.labels))
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := koBasic(t)

	inputs := [][]string{
		{"Open_Palm"},
		{"Open_Palm", "Pointing_Up"},
		{"Pointing_Up", "Open_Palm"},
		{"Victory", "Thumb_Down"},
		{},
	}
	for _, labels := range inputs {
		first := c.Classify(labels)
		second := c.Classify(labels)
		assert.Equal(t, first, second, "labels %v", labels)
	}
}

func TestClassifier_ExactBeatsReversed(t *testing.T) {
	c := NewClassifier(mustTable(t,
		Entry{Hands: []string{"A", "B"}, Token: "T1"},
		Entry{Hands: []string{"B", "A"}, Token: "T2"},
	))

	assert.Equal(t, Token("T1"), c.Classify([]string{"A", "B"}))
	assert.Equal(t, Token("T2"), c.Classify([]string{"B", "A"}))
}

func TestClassifier_ReversedFallback(t *testing.T) {
	c := NewClassifier(mustTable(t,
		Entry{Hands: []string{"B", "A"}, Token: "T"},
	))

	// "A|B" is both the exact and the sorted key and is not registered;
	// only the reversed key "B|A" can match.
	assert.Equal(t, Token("T"), c.Classify([]string{"A", "B"}))
	assert.Equal(t, Token("T"), c.Classify([]string{"B", "A"}))
}

func TestClassifier_SortedKeyIsSymmetric(t *testing.T) {
	c := NewClassifier(mustTable(t,
		Entry{Hands: []string{"A", "C"}, Token: "pair"},
	))

	assert.Equal(t, c.Classify([]string{"A", "C"}), c.Classify([]string{"C", "A"}))
	assert.Equal(t, Token("pair"), c.Classify([]string{"C", "A"}))
}

func TestClassifier_NilTable(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, NoGesture, c.Classify([]string{"Open_Palm"}))
}

func TestToken_IsEmpty(t *testing.T) {
	assert.True(t, NoGesture.IsEmpty())
	assert.True(t, NoGestureMarker.IsEmpty())
	assert.False(t, Token("좋다").IsEmpty())
}

func BenchmarkClassifier_TwoHands(b *testing.B) {
	reg, err := DefaultRegistry()
	if err != nil {
		b.Fatal(err)
	}
	table, err := reg.Get("ko-basic")
	if err != nil {
		b.Fatal(err)
	}
	c := NewClassifier(table)
	labels := []string{"Thumb_Down", "Victory"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Classify(labels)
	}
}
