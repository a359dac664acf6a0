package api

import (
	"strings"

	"github.com/samber/lo"
)

// NovelSummary is one entry of the novel listing.
type NovelSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"` // as sent by the backend
	Status    string `json:"status"`
}

// Novel is the metadata of a single novel. Content is empty when the backend
// only serves the text as sentences.
type Novel struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Content      string `json:"content,omitempty"`
	FullAudioURL string `json:"full_audio_url,omitempty"`
}

// Sentence is one synthesized sentence of a novel.
type Sentence struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AudioURL string `json:"audio_url"`
}

// Text returns the novel's content, or the sentences joined by single spaces
// when the backend sent no content.
func (n *Novel) Text(sentences []Sentence) string {
	if strings.TrimSpace(n.Content) != "" {
		return n.Content
	}
	texts := lo.FilterMap(sentences, func(s Sentence, _ int) (string, bool) {
		t := strings.TrimSpace(s.Text)
		return t, t != ""
	})
	return strings.Join(texts, " ")
}
