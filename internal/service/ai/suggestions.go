package ai

import (
	"strings"

	chatmodel "github.com/bluelight/licensekaki/backend/internal/model/chat"
)

// suggestionGroup pairs trigger keywords with the follow-ups they unlock.
type suggestionGroup struct {
	keywords  []string
	questions []string
}

var suggestionGroups = []suggestionGroup{
	{
		keywords: []string{"apply", "new"},
		questions: []string{
			"What documents do I need for a new licence?",
			"How long does the application process take?",
			"What is the cost for my kVA capacity?",
		},
	},
	{
		keywords: []string{"renew", "renewal"},
		questions: []string{
			"When should I start the renewal process?",
			"What documents are needed for renewal?",
			"Is the renewal fee different from new application?",
		},
	},
	{
		keywords: []string{"price", "cost", "fee"},
		questions: []string{
			"How is the kVA tier determined?",
			"What payment methods are available?",
			"Are there any additional fees?",
		},
	},
	{
		keywords: []string{"document", "upload", "sld"},
		questions: []string{
			"What is an SLD (Single Line Diagram)?",
			"How do I get a Letter of Appointment?",
			"What file formats are accepted?",
		},
	},
	{
		keywords: []string{"lew", "licensed", "worker"},
		questions: []string{
			"What does a LEW do?",
			"How is a LEW assigned to my application?",
			"Can I choose my own LEW?",
		},
	},
	{
		keywords: []string{"payment", "pay"},
		questions: []string{
			"How do I make a PayNow payment?",
			"When will my payment be confirmed?",
			"What is the UEN reference number?",
		},
	},
}

// SuggestFollowUps picks follow-up questions matching the topic of the last
// user message, falling back to the default set.
func SuggestFollowUps(lastMessage string) []string {
	lower := strings.ToLower(lastMessage)
	for _, group := range suggestionGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return append([]string(nil), group.questions...)
			}
		}
	}
	return chatmodel.DefaultSuggestions()
}
