package engine

import (
	"math"

	"github.com/primoscope/echotune/internal/models"
)

// featureSimilarity scores how close a track's feature vector sits to a
// preference target: average over shared features of 1 - |target - track|,
// both sides normalized to [0,1] first (tempo rescaled by BPM ceiling).
// Returns the neutral 0.5 when either side is empty (cold start).
func featureSimilarity(target, track models.AudioFeatures) float64 {
	if len(target) == 0 || len(track) == 0 {
		return 0.5
	}

	normTarget := target.Normalized()
	normTrack := track.Normalized()

	var sum float64
	var shared int
	for name, targetValue := range normTarget {
		trackValue, ok := normTrack[name]
		if !ok {
			continue
		}
		sum += 1 - math.Abs(targetValue-trackValue)
		shared++
	}
	if shared == 0 {
		return 0.5
	}
	return sum / float64(shared)
}

// cosineSimilarity over two equal-length histograms. Identical all-zero
// vectors score 1 by convention: two silent users are maximally similar in
// pattern, a deliberate tie-break (the Jaccard term still forces the overall
// similarity toward 0 when no tracks are shared).
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 && normB == 0 {
		return 1
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity of two track-ID sets, with the intersection size.
func jaccardSimilarity(a, b map[string]struct{}) (float64, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	common := 0
	for id := range small {
		if _, ok := large[id]; ok {
			common++
		}
	}

	union := len(a) + len(b) - common
	if union == 0 {
		return 0, 0
	}
	return float64(common) / float64(union), common
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
