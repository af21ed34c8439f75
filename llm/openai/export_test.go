package openai

import "github.com/sashabaranov/go-openai"

var (
	ConvertTool   = convertTool
	ConvertInputs = convertInputs
)

// History returns the session history for testing
func (s *Session) History() []openai.ChatCompletionMessage {
	return s.historyMessages
}
