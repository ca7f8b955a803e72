package frame

import (
	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/gesture"
)

// Labels extracts the top category name of each hand in detection order.
// Hands without a category contribute gesture.NoneLabel. At most
// gesture.MaxHands labels are returned.
func Labels(hands []detector.Hand) []string {
	n := len(hands)
	if n > gesture.MaxHands {
		n = gesture.MaxHands
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		if top, ok := hands[i].TopCategory(); ok {
			labels[i] = top.Name
		} else {
			labels[i] = gesture.NoneLabel
		}
	}
	return labels
}
