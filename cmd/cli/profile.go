package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <user_id>",
	Short: "Inspect a user's taste profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile(args[0])
	},
}

func getProfile(userID string) error {
	body, err := apiGet("/api/v1/profile/" + url.PathEscape(userID))
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		ColdStart bool `json:"cold_start"`
		Profile   struct {
			AudioFeaturePreferences map[string]float64 `json:"audio_feature_preferences"`
			GenreAffinities         map[string]float64 `json:"genre_affinities"`
			DiversityScore          float64            `json:"diversity_score"`
			TotalTracks             int                `json:"total_tracks"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if result.ColdStart {
		fmt.Println("No listening history yet - cold start profile")
		return nil
	}

	fmt.Printf("Tracks: %d   Diversity: %.2f\n", result.Profile.TotalTracks, result.Profile.DiversityScore)

	fmt.Println("Feature preferences:")
	for _, name := range sortedKeys(result.Profile.AudioFeaturePreferences) {
		fmt.Printf("  %-18s %.3f\n", name, result.Profile.AudioFeaturePreferences[name])
	}

	fmt.Println("Genre affinities:")
	for _, name := range sortedKeys(result.Profile.GenreAffinities) {
		fmt.Printf("  %-18s %.3f\n", name, result.Profile.GenreAffinities[name])
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
