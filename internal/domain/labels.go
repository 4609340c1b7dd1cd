package domain

import "strconv"

// SlotLabel builds a slot label from a prefix and a sequence number, e.g. "B-1"
func SlotLabel(prefix string, number int) string {
	return prefix + "-" + strconv.Itoa(number)
}

// GenerateSlotLabels returns labels prefix-(start+i) for i in [0, count)
func GenerateSlotLabels(prefix string, start, count int) []string {
	if count <= 0 {
		return []string{}
	}
	labels := make([]string, count)
	for i := 0; i < count; i++ {
		labels[i] = SlotLabel(prefix, start+i)
	}
	return labels
}
