package bank

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/blackhouse/concursobot/models"
)

//go:embed questions.json
var questionsJSON []byte

// Bank is the static fallback question set used when the questions API
// cannot supply anything usable.
type Bank struct {
	questions []models.Question
}

// Load parses the embedded question set, dropping entries that could not be
// published as a quiz poll.
func Load() (*Bank, error) {
	var raw []models.Question
	if err := json.Unmarshal(questionsJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse embedded question bank: %w", err)
	}

	questions := make([]models.Question, 0, len(raw))
	for _, q := range raw {
		if !q.Valid() {
			log.Printf("Skipping invalid bank entry: %q", q.Text)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, errors.New("embedded question bank has no valid entries")
	}

	return &Bank{questions: questions}, nil
}

// ByTopic returns the bank entries matching the topic. When nothing matches
// (or no topic is given) the whole bank is returned; an off-topic question
// beats no question at all.
func (b *Bank) ByTopic(topic string) []models.Question {
	if topic == "" {
		return b.questions
	}

	var matched []models.Question
	for _, q := range b.questions {
		if q.Topic == topic {
			matched = append(matched, q)
		}
	}
	if len(matched) == 0 {
		return b.questions
	}
	return matched
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}
