package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/gesture"
)

func TestLabels(t *testing.T) {
	reg, err := gesture.DefaultRegistry()
	require.NoError(t, err)
	table, err := reg.Get("ko-basic")
	require.NoError(t, err)
	c := gesture.NewClassifier(table)

	hands := []detector.Hand{detector.OpenPalmHand(), detector.NewHand("Pointing_Up", 0.9)}
	assert.Equal(t, []string{"Open_Palm", "Pointing_Up"}, Labels(hands))
	assert.Equal(t, gesture.Token("6"), c.Classify(Labels(hands)))

	// A hand without any category becomes the placeholder label.
	hands = []detector.Hand{{Landmarks: detector.OpenPalmLandmarks()}}
	assert.Equal(t, []string{gesture.NoneLabel}, Labels(hands))
	assert.Equal(t, gesture.NoGesture, c.Classify(Labels(hands)))

	hands = []detector.Hand{
		detector.NewHand("Thumb_Up", 0.8),
		detector.NewHand("Victory", 0.7),
		detector.NewHand("Open_Palm", 0.9),
	}
	assert.Equal(t, []string{"Thumb_Up", "Victory"}, Labels(hands))
	assert.Empty(t, Labels(nil))
}
