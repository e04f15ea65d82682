package ai

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ai-persona-chat/backend/internal/models"
)

// buildMessages assembles the chat-completion message list for a request:
// one system message rendered from the persona, few-shot pairs as synthetic
// turns, the recent history, and finally the new user message.
func buildMessages(req Request) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: renderSystemPrompt(req.Persona),
	}}

	for _, shot := range req.Persona.FewShots {
		if shot.User == "" || shot.Assistant == "" {
			continue
		}
		user := shot.User
		if shot.Context != "" {
			user = fmt.Sprintf("(%s) %s", shot.Context, shot.User)
		}
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: shot.Assistant},
		)
	}

	for _, msg := range req.History {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})
}

// renderSystemPrompt flattens the persona's style contract into one system
// message.
func renderSystemPrompt(p *models.Persona) string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)

	if p.StyleGuide != "" {
		b.WriteString("\n\n风格指南：")
		b.WriteString(p.StyleGuide)
	}
	if len(p.Dos) > 0 {
		b.WriteString("\n应该：")
		b.WriteString(strings.Join(p.Dos, "；"))
	}
	if len(p.Donts) > 0 {
		b.WriteString("\n不应该：")
		b.WriteString(strings.Join(p.Donts, "；"))
	}
	if p.SafetyAdapter != "" {
		b.WriteString("\n\n")
		b.WriteString(p.SafetyAdapter)
	}
	return b.String()
}
