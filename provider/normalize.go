package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/blackhouse/concursobot/models"
)

// Wrapper keys under which the API sometimes nests its question list.
var listWrapperKeys = []string{"result", "questoes"}

// rawQuestion mirrors one API item. The correct-answer field arrives either
// as an index or as the literal option text, so it is kept raw and resolved
// afterwards.
type rawQuestion struct {
	Text        string          `json:"pergunta"`
	Options     []string        `json:"opcoes"`
	Correct     json.RawMessage `json:"correta"`
	Explanation string          `json:"comentario"`
	Topic       string          `json:"topico"`
}

// Normalize maps whatever the API returned into valid questions. The API has
// been observed to answer with a bare question object, an object wrapping a
// list, or a top-level list; all three are accepted. Malformed payloads and
// items are dropped rather than failing the whole response.
func Normalize(raw []byte, defaultTopic string) []models.Question {
	items := extractItems(raw)

	questions := make([]models.Question, 0, len(items))
	for _, item := range items {
		q, ok := normalizeItem(item, defaultTopic)
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// extractItems locates the list of question objects inside the payload.
func extractItems(raw []byte) []json.RawMessage {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		// A single question object is treated as a one-element list.
		if hasKeys(obj, "pergunta", "opcoes", "correta") {
			return []json.RawMessage{data}
		}
		for _, key := range listWrapperKeys {
			wrapped, ok := obj[key]
			if !ok {
				continue
			}
			var list []json.RawMessage
			if err := json.Unmarshal(wrapped, &list); err == nil {
				return list
			}
		}
		return nil
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil
		}
		return list
	default:
		return nil
	}
}

func hasKeys(obj map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

func normalizeItem(item json.RawMessage, defaultTopic string) (models.Question, bool) {
	var rq rawQuestion
	if err := json.Unmarshal(item, &rq); err != nil {
		return models.Question{}, false
	}
	if strings.TrimSpace(rq.Text) == "" || len(rq.Options) < 2 || len(rq.Correct) == 0 {
		return models.Question{}, false
	}

	correct, ok := resolveCorrect(rq.Correct, rq.Options)
	if !ok {
		return models.Question{}, false
	}

	topic := rq.Topic
	if topic == "" {
		topic = defaultTopic
	}
	if topic == "" {
		topic = "Geral"
	}

	q := models.Question{
		Text:         rq.Text,
		Options:      rq.Options,
		CorrectIndex: correct,
		Explanation:  rq.Explanation,
		Topic:        topic,
	}
	if !q.Valid() {
		return models.Question{}, false
	}
	return q, true
}

// resolveCorrect turns the correct-answer field into an option index. The API
// encodes it inconsistently: sometimes an integer index, sometimes a numeric
// string, sometimes the literal text of the right option. All three are part
// of the contract and stay supported.
func resolveCorrect(raw json.RawMessage, options []string) (int, bool) {
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return idx, idx >= 0 && idx < len(options)
	}

	var literal string
	if err := json.Unmarshal(raw, &literal); err != nil {
		return 0, false
	}
	literal = strings.TrimSpace(literal)

	if idx, err := strconv.Atoi(literal); err == nil {
		return idx, idx >= 0 && idx < len(options)
	}

	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), literal) {
			return i, true
		}
	}
	return 0, false
}
