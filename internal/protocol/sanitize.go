package protocol

import "math"

// SanitizeObservation returns obs with every value JSON cannot carry
// replaced: NaN becomes 0 and an infinity clamps to the largest finite
// value of its type. The second result counts replacements. Audio and
// LogDict are copied before any change, never edited in place.
func SanitizeObservation(obs Observation) (Observation, int) {
	var n int
	obs.Reward = finite64(obs.Reward, &n)
	obs.TimeFeature = finite64(obs.TimeFeature, &n)

	for i, s := range obs.Audio {
		if isFinite(float64(s)) {
			continue
		}
		audio := make([]float32, len(obs.Audio))
		copy(audio, obs.Audio)
		for j := i; j < len(audio); j++ {
			audio[j] = finite32(audio[j], &n)
		}
		obs.Audio = audio
		break
	}

	for _, v := range obs.LogDict {
		if v.Kind() != LogNumber || isFinite(v.num) {
			continue
		}
		dict := make(LogDict, len(obs.LogDict))
		for k, v := range obs.LogDict {
			if v.Kind() == LogNumber {
				v = Number(finite64(v.num, &n))
			}
			dict[k] = v
		}
		obs.LogDict = dict
		break
	}
	return obs, n
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finite64(f float64, n *int) float64 {
	switch {
	case math.IsNaN(f):
		*n++
		return 0
	case math.IsInf(f, 1):
		*n++
		return math.MaxFloat64
	case math.IsInf(f, -1):
		*n++
		return -math.MaxFloat64
	}
	return f
}

func finite32(f float32, n *int) float32 {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		*n++
		return 0
	case math.IsInf(v, 1):
		*n++
		return math.MaxFloat32
	case math.IsInf(v, -1):
		*n++
		return -math.MaxFloat32
	}
	return f
}
