package mathx

// MapInt maps x in [inMin,inMax] to [outMin,outMax], clamping x to the
// input range first. Used for gauge fills on the panel.
func MapInt(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	if inMax < inMin {
		inMin, inMax = inMax, inMin
		outMin, outMax = outMax, outMin
	}
	if x < inMin {
		return outMin
	}
	if x > inMax {
		return outMax
	}
	return outMin + (x-inMin)*(outMax-outMin)/(inMax-inMin)
}

// RoundDiv returns (a + b/2) / b, classic rounding for positive divisors.
func RoundDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	if a < 0 {
		return -((-a + b/2) / b)
	}
	return (a + b/2) / b
}
