package libutil

import (
	"math"
)

const (
	Rad2Deg = float32(180 / math.Pi)
	Deg2Rad = float32(math.Pi / 180)
)

type Deleter interface {
	Delete()
}

// DeleteAll deletes in reverse order, so a list built up during construction
// is torn down last to first.
func DeleteAll(list []Deleter) {
	for i := len(list) - 1; i >= 0; i-- {
		list[i].Delete()
	}
}

func Clamp[T int | float32](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
