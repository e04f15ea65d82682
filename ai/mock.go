package ai

import (
	"fmt"
	"strings"

	"ai-persona-chat/backend/internal/models"
)

// Built-in mock voices, keyed by the seed persona identifiers.
const (
	voiceGentle   = "gentle"
	voiceSassy    = "sassy"
	voiceAcademic = "academic"
	voiceHealing  = "healing"
)

var mockTemplates = map[string]string{
	voiceGentle:   "我理解你说的「%s」。让我们慢慢聊聊这个话题吧，我会一直陪着你的。",
	voiceSassy:    "哟，「%s」？这问题问得好哇，让本姑娘给你说道说道～",
	voiceAcademic: "关于「%s」这个问题，我们可以从几个维度来分析。首先，需要明确其基本定义与边界条件。",
	voiceHealing:  "谢谢你愿意和我分享「%s」。无论发生什么，你的感受都是真实且重要的。",
}

const mockDefaultTemplate = "我收到了你的消息：「%s」。很高兴和你聊天！"

// mockReply renders the canned reply for a persona. Voice selection checks
// the persona id first, then its tags, so seed personas keep their flavor
// after re-creation under fresh ids.
func mockReply(p *models.Persona, userMessage string) string {
	if tpl, ok := mockTemplates[p.ID]; ok {
		return fmt.Sprintf(tpl, truncate(userMessage, 40))
	}
	for _, tag := range p.Tags {
		if tpl, ok := mockTemplates[strings.ToLower(tag)]; ok {
			return fmt.Sprintf(tpl, truncate(userMessage, 40))
		}
	}
	return fmt.Sprintf(mockDefaultTemplate, truncate(userMessage, 40))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
