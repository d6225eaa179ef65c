package native

// resample converts samples from rate to target with linear interpolation.
func resample(samples []int16, rate, target int) []int16 {
	if rate == target || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(target) / int64(rate))
	if n == 0 {
		n = 1
	}
	out := make([]int16, n)
	step := float64(rate) / float64(target)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		a, b := float64(samples[j]), float64(samples[j+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}
