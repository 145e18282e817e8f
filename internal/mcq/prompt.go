package mcq

import "fmt"

// SystemPrompt is sent as the system message to chat-style backends.
const SystemPrompt = "You are an expert educator who creates high-quality multiple choice questions."

const promptTemplate = `Create 1 multiple choice question from this text. Format as JSON:
{
  "question": "Question text?",
  "options": ["Option A", "Option B", "Option C", "Option D"],
  "correctAnswer": 0,
  "explanation": "Why this is correct"
}

Guidelines:
- Focus on key concepts, facts, and important information
- Make the question clear and unambiguous
- Ensure options are plausible but only one is clearly correct

Text: %q`

// Prompt builds the completion prompt for one transcript segment.
func Prompt(segmentText string) string {
	return fmt.Sprintf(promptTemplate, segmentText)
}
