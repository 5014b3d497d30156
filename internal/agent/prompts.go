package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calendaragent/internal/conversation"
)

// ApologyMessage replaces the assistant reply when the model cannot be reached.
const ApologyMessage = "Sorry, an error occurred while processing your request. Please try again later."

// DefaultTimeZone is the reference zone for the time prefix and zone-less tool times.
const DefaultTimeZone = "Asia/Kolkata"

const timePrefixLayout = "2006-01-02 15:04:05 MST"

// TimePrefix is prepended to the latest message before a tool-enabled model call.
func TimePrefix(now time.Time) string {
	return fmt.Sprintf("The current date and time is %s. Please consider this information when generating your response.\n\n",
		now.Format(timePrefixLayout))
}

// SynthesisPrompt asks the model for the final answer after tools have run.
func SynthesisPrompt(results []conversation.ToolResultMessage, userInput string) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return fmt.Sprintf("Give final response based on this tool message: %s. "+
		"And also consider the user's original message: %s. "+
		"This response created by you will be final and will be prompted to user.",
		strings.Join(parts, "\n"), userInput)
}
