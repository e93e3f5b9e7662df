package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <user_id> <track_id> <action>",
	Short: "Submit a feedback event",
	Long:  "Submit a feedback event. Actions: like, dislike, skip, save, play_full",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitFeedback(args[0], args[1], args[2])
	},
}

func submitFeedback(userID, trackID, action string) error {
	payload := map[string]interface{}{
		"track_id":    trackID,
		"action":      action,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := http.Post(
		apiURL+"/api/v1/feedback/"+url.PathEscape(userID),
		"application/json",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, body)
	}

	if output == "json" {
		fmt.Println(string(body))
	} else {
		fmt.Printf("✓ Recorded %s for track %s\n", action, trackID)
	}
	return nil
}
