package llm

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"google.golang.org/genai"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// validateMessages requires a non-empty conversation with at least one user turn
func validateMessages(messages []interfaces.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}
	for _, msg := range messages {
		if msg.Role == RoleUser {
			return nil
		}
	}
	return fmt.Errorf("at least one message must have role '%s'", RoleUser)
}

// splitSystem separates the first system message from the conversation turns.
// Later system messages are dropped.
func splitSystem(messages []interfaces.Message) (string, []interfaces.Message) {
	var systemText string
	turns := make([]interfaces.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}
		turns = append(turns, msg)
	}
	return systemText, turns
}

// convertMessagesToClaude maps the conversation to Anthropic message params.
// Returns the user/assistant messages and the system prompt.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	systemText, turns := splitSystem(messages)
	claudeMessages := make([]anthropic.MessageParam, 0, len(turns))
	for _, msg := range turns {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(block))
		} else {
			// Unknown roles are sent as user turns
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(block))
		}
	}

	return claudeMessages, systemText, nil
}

// convertMessagesToGemini maps the conversation to genai contents.
// Returns the user/model contents and the system instruction text.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	systemText, turns := splitSystem(messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, msg := range turns {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// openAIMessage is a chat completions message
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// convertMessagesToOpenAI keeps system messages inline since the chat
// completions API accepts them as regular turns.
func convertMessagesToOpenAI(messages []interfaces.Message) ([]openAIMessage, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	result := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		switch role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			role = RoleUser
		}
		result = append(result, openAIMessage{Role: role, Content: msg.Content})
	}
	return result, nil
}
