package sample

// Downsample decimates samples to at most maxPoints for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// With two or more points the first and last samples are always kept.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if maxPoints <= 0 || len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	if maxPoints == 1 {
		return append(dst, samples[len(samples)-1])
	}

	// Spread maxPoints indices over [0, len-1] inclusive.
	step := float64(len(samples)-1) / float64(maxPoints-1)
	for i := range maxPoints {
		dst = append(dst, samples[int(float64(i)*step+0.5)])
	}

	return dst
}
