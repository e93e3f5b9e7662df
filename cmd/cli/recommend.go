package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	recommendLimit     int
	recommendMood      string
	recommendActivity  string
	recommendTimeOfDay string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <user_id>",
	Short: "Fetch recommendations for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getRecommendations(args[0])
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 20, "Number of recommendations")
	recommendCmd.Flags().StringVar(&recommendMood, "mood", "", "Mood tag (happy, sad, energetic, calm, romantic)")
	recommendCmd.Flags().StringVar(&recommendActivity, "activity", "", "Activity tag (workout, study, sleep, party, commute)")
	recommendCmd.Flags().StringVar(&recommendTimeOfDay, "time-of-day", "", "Time of day (morning, afternoon, evening, night)")
}

func getRecommendations(userID string) error {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(recommendLimit))
	if recommendMood != "" {
		params.Set("mood", recommendMood)
	}
	if recommendActivity != "" {
		params.Set("activity", recommendActivity)
	}
	if recommendTimeOfDay != "" {
		params.Set("time_of_day", recommendTimeOfDay)
	}

	body, err := apiGet("/api/v1/recommendations/" + url.PathEscape(userID) + "?" + params.Encode())
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Recommendations []struct {
			TrackName  string   `json:"track_name"`
			ArtistName string   `json:"artist_name"`
			FinalScore float64  `json:"final_score"`
			Source     string   `json:"source"`
			Rationale  []string `json:"rationale"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	for i, rec := range result.Recommendations {
		rationale := ""
		if len(rec.Rationale) > 0 {
			rationale = rec.Rationale[0]
		}
		fmt.Printf("%2d. %s - %s (%.2f, %s)\n      %s\n",
			i+1, rec.ArtistName, rec.TrackName, rec.FinalScore, rec.Source, rationale)
	}
	return nil
}

func apiGet(path string) ([]byte, error) {
	resp, err := http.Get(apiURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

func apiError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return fmt.Errorf("API error: %s", errResp.Error.Message)
	}
	return fmt.Errorf("API error: status %d", status)
}
