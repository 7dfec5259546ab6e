package strconvx

// FormatDeci renders a value expressed in tenths, e.g. 234 -> "23.4",
// -5 -> "-0.5". Sensor temperatures and humidities travel as deci-units
// end to end, so no float formatting is needed anywhere.
func FormatDeci(v int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := Itoa(v/10) + "." + Itoa(v%10)
	if neg {
		return "-" + s
	}
	return s
}
