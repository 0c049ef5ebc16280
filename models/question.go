package models

import "strings"

// Question represents a single quiz question ready to be published as a poll.
// The JSON tags follow the questions API field names.
type Question struct {
	Text         string   `json:"pergunta"`
	Options      []string `json:"opcoes"`
	CorrectIndex int      `json:"correta"`
	Explanation  string   `json:"comentario"`
	Topic        string   `json:"topico"`
}

// Fingerprint identifies a question for repeat detection. Two questions with
// the same trimmed text and correct-answer index count as the same question,
// regardless of how their options are worded.
type Fingerprint struct {
	Text         string
	CorrectIndex int
}

// Fingerprint returns the repeat-detection key for the question.
func (q Question) Fingerprint() Fingerprint {
	return Fingerprint{
		Text:         strings.TrimSpace(q.Text),
		CorrectIndex: q.CorrectIndex,
	}
}

// Valid reports whether the question can be published as a quiz poll.
func (q Question) Valid() bool {
	return strings.TrimSpace(q.Text) != "" &&
		len(q.Options) >= 2 &&
		q.CorrectIndex >= 0 &&
		q.CorrectIndex < len(q.Options)
}

// Delivery origins recorded for published batches.
const (
	OriginScheduled = "scheduled"
	OriginManual    = "manual"
)

// DeliveryStats aggregates the delivery log for the /stat command.
type DeliveryStats struct {
	TotalBatches   int
	TotalQuestions int
	Scheduled      int
	Manual         int
}

// TopicCount is the number of batches delivered for a single topic.
type TopicCount struct {
	Topic   string
	Batches int
}
