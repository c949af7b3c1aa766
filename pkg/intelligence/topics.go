package intelligence

import (
	"regexp"
	"strings"
)

// GeneralTopic is the catch-all label assigned when no topic rule matches.
const GeneralTopic = "general"

// topicRule pairs a topic label with its matching signals. A keyword hit is
// worth 1 point, a pattern hit 2 points; the topic is assigned at 2 points or
// more.
type topicRule struct {
	topic    string
	keywords []string
	patterns []*regexp.Regexp
}

// topicRules is the fixed rule table, evaluated in order. Rule order is the
// output order of assigned topics.
var topicRules = []topicRule{
	{
		topic: "personal_info",
		keywords: []string{
			"name", "age", "birthday", "born", "old",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bmy name is\b`),
			regexp.MustCompile(`\bcall me\b`),
			regexp.MustCompile(`\bi am \d+\b`),
			regexp.MustCompile(`\bi'?m \d+ years?\b`),
		},
	},
	{
		topic: "work",
		keywords: []string{
			"work", "job", "career", "office", "company", "engineer",
			"developer", "manager", "colleague", "boss", "salary", "project",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bworks? as an? \w+`),
			regexp.MustCompile(`\bemployed (at|by)\b`),
			regexp.MustCompile(`\bmy (job|career|boss|company)\b`),
		},
	},
	{
		topic: "preferences",
		keywords: []string{
			"prefer", "like", "love", "favorite", "hate", "dislike", "enjoy",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bmy favorite \w+`),
			regexp.MustCompile(`\bi (really )?(like|love|prefer|hate|dislike|enjoy)\b`),
		},
	},
	{
		topic: "food",
		keywords: []string{
			"eat", "food", "pizza", "coffee", "tea", "restaurant", "cook",
			"breakfast", "lunch", "dinner", "vegetarian", "vegan", "chocolate",
			"vanilla",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\ballergic to \w+`),
			regexp.MustCompile(`\bi (like|love|hate) (eating|drinking)\b`),
		},
	},
	{
		topic: "family",
		keywords: []string{
			"wife", "husband", "son", "daughter", "mother", "father",
			"brother", "sister", "kids", "children", "married", "parents",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bmy (wife|husband|son|daughter|mom|dad|mother|father|brother|sister)\b`),
		},
	},
	{
		topic: "hobbies",
		keywords: []string{
			"hobby", "play", "game", "reading", "music", "guitar", "piano",
			"hiking", "running", "swimming", "travel", "photography", "paint",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bin my (free|spare) time\b`),
			regexp.MustCompile(`\bi (play|collect) \w+`),
		},
	},
	{
		topic: "location",
		keywords: []string{
			"live", "lives", "city", "moved", "address", "neighborhood",
			"apartment", "house",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bi live (in|at|near)\b`),
			regexp.MustCompile(`\bmoved to \w+`),
			regexp.MustCompile(`\b(i'?m|i am) from \w+`),
		},
	},
	{
		topic: "schedule",
		keywords: []string{
			"meeting", "appointment", "tomorrow", "schedule", "calendar",
			"remind", "deadline", "monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}(:\d{2})?\s?(am|pm)\b`),
			regexp.MustCompile(`\b(every|next) (day|week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		},
	},
	{
		topic: "health",
		keywords: []string{
			"doctor", "allergic", "allergy", "medication", "exercise", "gym",
			"sleep", "diet", "health",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bdiagnosed with\b`),
			regexp.MustCompile(`\btaking \w+ (for|daily)\b`),
		},
	},
	{
		topic: "technology",
		keywords: []string{
			"computer", "software", "python", "golang", "javascript",
			"programming", "code", "app", "phone", "laptop", "server",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(use|using|wrote|writing) \w+ (daily|every day)\b`),
		},
	},
}

// TopicClassifier tags memory text with topic labels using a fixed keyword
// and pattern table. It is stateless, deterministic, and a pure function of
// the input text. No ML, no network.
type TopicClassifier struct{}

// NewTopicClassifier creates a topic classifier.
func NewTopicClassifier() *TopicClassifier {
	return &TopicClassifier{}
}

// Classify returns the topic labels for text.
//
// For each topic in the rule table the score is the number of keyword hits
// plus twice the number of pattern hits; topics scoring 2 or more are
// assigned. Multiple topics may be assigned at once. If nothing scores 2,
// or the input is empty, the result is ["general"].
//
// Repeated calls with the same input always return the same labels, in the
// same order (rule-table order).
func (c *TopicClassifier) Classify(text string) []string {
	normalized := NormalizeText(text)
	if normalized == "" {
		return []string{GeneralTopic}
	}

	// Pad with spaces so multi-word keywords match on word boundaries.
	padded := " " + strings.Join(Tokenize(normalized), " ") + " "

	var topics []string
	for _, rule := range topicRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				score++
			}
		}
		for _, re := range rule.patterns {
			if re.MatchString(normalized) {
				score += 2
			}
		}
		if score >= 2 {
			topics = append(topics, rule.topic)
		}
	}

	if len(topics) == 0 {
		return []string{GeneralTopic}
	}
	return topics
}
