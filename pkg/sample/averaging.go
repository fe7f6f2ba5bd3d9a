package sample

// Smooth returns the trailing moving average of samples over window points.
// Each output keeps the timestamp of its newest input. A window of 1 or less
// returns a copy.
func Smooth(samples []Sample, window int) []Sample {
	out := make([]Sample, len(samples))
	if window <= 1 {
		copy(out, samples)
		return out
	}

	var sum float64
	for i, s := range samples {
		sum += s.Weight
		n := i + 1
		if i >= window {
			sum -= samples[i-window].Weight
			n = window
		}
		out[i] = Sample{Timestamp: s.Timestamp, Weight: sum / float64(n)}
	}
	return out
}

// NewAveragingConverter chains a trailing moving average of window samples
// onto a sample stream. The output closes when the input does.
func NewAveragingConverter(window int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if window <= 0 {
		window = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, window)
			var sum float64
			for s := range in {
				if len(buffer) == window {
					sum -= buffer[0].Weight
					buffer = buffer[1:]
				}
				buffer = append(buffer, s)
				sum += s.Weight

				out <- Sample{Timestamp: s.Timestamp, Weight: sum / float64(len(buffer))}
			}
		}()

		return out
	}
}
