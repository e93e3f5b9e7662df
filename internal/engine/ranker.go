package engine

import (
	"fmt"
	"sort"

	"github.com/primoscope/echotune/internal/models"
)

// Hybrid ranking boosts.
const (
	profileBoostFactor = 0.5
	contextBoostFactor = 1.1
)

// HybridRanker merges the candidate streams into a deduplicated, ranked,
// explainable recommendation list.
type HybridRanker struct{}

// NewHybridRanker creates a ranker.
func NewHybridRanker() *HybridRanker {
	return &HybridRanker{}
}

// Rank applies source weights and profile/context boosts, deduplicates by
// track (keeping the best-scoring occurrence but remembering every
// contributing source for the rationale), sorts and truncates.
func (r *HybridRanker) Rank(candidatesBySource map[Source][]Candidate, profile *models.UserProfile, reqContext Context, limit int) []Recommendation {
	contextBoost := 1.0
	if !reqContext.Empty() {
		contextBoost = contextBoostFactor
	}

	type merged struct {
		best    Candidate
		score   float64
		sources map[Source]struct{}
	}

	byTrack := make(map[string]*merged)
	for source, candidates := range candidatesBySource {
		for _, candidate := range candidates {
			featSim := featureSimilarity(profile.AudioFeaturePreferences, candidate.AudioFeatures)
			score := candidate.RawScore * candidate.SourceWeight * (1 + featSim*profileBoostFactor) * contextBoost
			if score > 1.0 {
				score = 1.0
			}

			entry, ok := byTrack[candidate.TrackID]
			if !ok {
				entry = &merged{best: candidate, score: score, sources: map[Source]struct{}{}}
				byTrack[candidate.TrackID] = entry
			} else if score > entry.score {
				entry.best = candidate
				entry.score = score
			}
			entry.sources[source] = struct{}{}
		}
	}

	ranked := make([]Recommendation, 0, len(byTrack))
	for _, entry := range byTrack {
		ranked = append(ranked, Recommendation{
			TrackID:    entry.best.TrackID,
			TrackName:  entry.best.TrackName,
			ArtistName: entry.best.ArtistName,
			FinalScore: entry.score,
			Rationale:  rationale(entry.sources, reqContext),
			Source:     entry.best.Source,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].TrackID < ranked[j].TrackID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// rationale builds the human-readable reasons for a merged candidate,
// one per contributing source, in a stable order.
func rationale(sources map[Source]struct{}, reqContext Context) []string {
	reasons := make([]string, 0, len(sources))

	if _, ok := sources[SourceCollaborative]; ok {
		reasons = append(reasons, "users with similar taste enjoy this")
	}
	if _, ok := sources[SourceContent]; ok {
		reasons = append(reasons, "matches your preferences")
	}
	if _, ok := sources[SourceContextual]; ok {
		switch {
		case reqContext.Activity != "":
			reasons = append(reasons, fmt.Sprintf("great for %s", reqContext.Activity))
		case reqContext.Mood != "":
			reasons = append(reasons, fmt.Sprintf("perfect for a %s mood", reqContext.Mood))
		case reqContext.TimeOfDay != "":
			reasons = append(reasons, fmt.Sprintf("fits your %s listening", reqContext.TimeOfDay))
		default:
			reasons = append(reasons, "suits this time of day")
		}
	}
	if _, ok := sources[SourceTrending]; ok {
		reasons = append(reasons, "popular with other listeners")
	}
	if _, ok := sources[SourceFallback]; ok {
		reasons = append(reasons, "popular with other listeners")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Recommended for you")
	}
	return reasons
}
