package bridge

import kit "ethinline/internal/transport"

const parseModeMarkdown = "Markdown"

// Format renders r as the single article answer sent back to the chat.
func Format(r Reply) kit.Article {
	return kit.Article{
		ID:             r.ID,
		Title:          r.Title,
		Text:           r.Body,
		ParseMode:      parseModeMarkdown,
		DisablePreview: true,
	}
}
