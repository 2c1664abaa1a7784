package tween

import "math"

// Easing maps linear progress k in [0,1] to eased progress
type Easing func(k float64) float64

// Linear leaves progress unchanged
func Linear(k float64) float64 { return k }

// ExponentialInOut accelerates from rest exponentially and decelerates the same way
func ExponentialInOut(k float64) float64 {
	switch {
	case k <= 0:
		return 0
	case k >= 1:
		return 1
	}

	k *= 2
	if k < 1 {
		return 0.5 * math.Pow(1024, k-1)
	}
	return 0.5 * (-math.Pow(2, -10*(k-1)) + 2)
}
