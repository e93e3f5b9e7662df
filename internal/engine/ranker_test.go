package engine

import (
	"fmt"
	"testing"

	"github.com/primoscope/echotune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(trackID string, raw float64, source Source) Candidate {
	return Candidate{
		TrackID:      trackID,
		TrackName:    "track " + trackID,
		ArtistName:   "artist",
		RawScore:     raw,
		Source:       source,
		SourceWeight: source.Weight(),
		AudioFeatures: models.AudioFeatures{
			models.FeatureEnergy: 0.5,
		},
	}
}

func TestRankDeduplicatesAndBounds(t *testing.T) {
	ranker := NewHybridRanker()
	profile := models.NewColdStartProfile("u")

	bySource := map[Source][]Candidate{
		SourceCollaborative: {candidate("t1", 2.5, SourceCollaborative), candidate("t2", 0.4, SourceCollaborative)},
		SourceContent:       {candidate("t1", 0.9, SourceContent), candidate("t3", 0.8, SourceContent)},
		SourceTrending:      {candidate("t4", 0.75, SourceTrending)},
	}

	ranked := ranker.Rank(bySource, profile, Context{}, 10)

	seen := map[string]bool{}
	for _, rec := range ranked {
		assert.False(t, seen[rec.TrackID], "duplicate track %s", rec.TrackID)
		seen[rec.TrackID] = true
		assert.GreaterOrEqual(t, rec.FinalScore, 0.0)
		assert.LessOrEqual(t, rec.FinalScore, 1.0)
		assert.NotEmpty(t, rec.Rationale)
	}
	assert.Len(t, ranked, 4)

	// Sorted descending.
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].FinalScore, ranked[i].FinalScore)
	}
}

func TestRankRespectsLimit(t *testing.T) {
	ranker := NewHybridRanker()
	profile := models.NewColdStartProfile("u")

	var candidates []Candidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, candidate(fmt.Sprintf("t%d", i), 0.5, SourceContent))
	}

	ranked := ranker.Rank(map[Source][]Candidate{SourceContent: candidates}, profile, Context{}, 5)
	assert.Len(t, ranked, 5)
}

func TestRankContextBoost(t *testing.T) {
	ranker := NewHybridRanker()
	profile := models.NewColdStartProfile("u")
	bySource := map[Source][]Candidate{
		SourceContent: {candidate("t1", 0.5, SourceContent)},
	}

	plain := ranker.Rank(bySource, profile, Context{}, 10)
	boosted := ranker.Rank(bySource, profile, Context{Mood: "happy"}, 10)

	require.Len(t, plain, 1)
	require.Len(t, boosted, 1)
	assert.InDelta(t, plain[0].FinalScore*contextBoostFactor, boosted[0].FinalScore, 1e-9)
}

func TestRankMergedSourcesShareRationale(t *testing.T) {
	ranker := NewHybridRanker()
	profile := models.NewColdStartProfile("u")

	bySource := map[Source][]Candidate{
		SourceCollaborative: {candidate("t1", 0.9, SourceCollaborative)},
		SourceContent:       {candidate("t1", 0.9, SourceContent)},
	}

	ranked := ranker.Rank(bySource, profile, Context{}, 10)
	require.Len(t, ranked, 1)
	assert.Contains(t, ranked[0].Rationale, "users with similar taste enjoy this")
	assert.Contains(t, ranked[0].Rationale, "matches your preferences")
}

func TestRankProfileMatchBoost(t *testing.T) {
	ranker := NewHybridRanker()

	profile := models.NewColdStartProfile("u")
	profile.AudioFeaturePreferences = models.AudioFeatures{models.FeatureEnergy: 0.9}

	matching := candidate("match", 0.5, SourceContent)
	matching.AudioFeatures = models.AudioFeatures{models.FeatureEnergy: 0.9}
	clashing := candidate("clash", 0.5, SourceContent)
	clashing.AudioFeatures = models.AudioFeatures{models.FeatureEnergy: 0.1}

	ranked := ranker.Rank(map[Source][]Candidate{SourceContent: {matching, clashing}}, profile, Context{}, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "match", ranked[0].TrackID)
}
