package quiz

import (
	"context"
	"log"
	"math/rand/v2"

	"github.com/blackhouse/concursobot/bank"
	"github.com/blackhouse/concursobot/history"
	"github.com/blackhouse/concursobot/models"
	"github.com/blackhouse/concursobot/provider"
)

// tryFactor is how many fetch iterations the assembler is willing to spend
// per requested question. The API hands out one question per call, so the
// loop has to be generous to get variety.
const tryFactor = 4

// Fetcher supplies raw API payloads after retries. A nil payload means the
// provider is unavailable.
type Fetcher interface {
	FetchWithRetry(ctx context.Context, count int, topic string) []byte
}

// Service assembles batches of unique questions for delivery. It is the
// single entry point shared by the scheduler and manual commands.
type Service struct {
	fetcher Fetcher
	cache   *history.Cache
	bank    *bank.Bank
}

// NewService creates a batch assembler.
func NewService(fetcher Fetcher, cache *history.Cache, bank *bank.Bank) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		bank:    bank,
	}
}

// AssembleBatch returns up to count questions for the topic with pairwise
// distinct fingerprints, pulling from the questions API first and from the
// local bank when the API yields nothing usable. An empty result means no
// questions could be sourced at all; callers should skip delivery, not crash.
func (s *Service) AssembleBatch(ctx context.Context, topic string, count int) []models.Question {
	if count <= 0 {
		return nil
	}

	batch := make([]models.Question, 0, count)
	seen := make(map[models.Fingerprint]struct{})

	budget := count * tryFactor
	for attempt := 0; attempt < budget && len(batch) < count; attempt++ {
		raw := s.fetcher.FetchWithRetry(ctx, 1, topic)
		if raw == nil {
			// The API is down, not just empty for this query; spending the
			// remaining iterations would only repeat the same retries.
			log.Printf("Questions API unavailable, stopping after %d of %d iterations", attempt+1, budget)
			break
		}

		for _, q := range provider.Normalize(raw, topic) {
			fp := q.Fingerprint()
			if _, dup := seen[fp]; dup {
				continue
			}
			if s.cache.Contains(fp) {
				continue
			}

			seen[fp] = struct{}{}
			batch = append(batch, q)
			s.cache.Register(fp)

			if len(batch) >= count {
				break
			}
		}
	}

	if len(batch) > 0 {
		// Order within a batch carries no meaning.
		rand.Shuffle(len(batch), func(i, j int) {
			batch[i], batch[j] = batch[j], batch[i]
		})
		return batch
	}

	log.Printf("Questions API yielded nothing usable for topic %q, using local bank", topic)
	return s.fromBank(topic, count, seen)
}

// fromBank samples the fallback bank. Distinct questions are preferred, but
// once the pool is smaller than the batch, repeats are accepted; having
// something to deliver beats strict dedup here.
func (s *Service) fromBank(topic string, count int, seen map[models.Fingerprint]struct{}) []models.Question {
	pool := s.bank.ByTopic(topic)
	if len(pool) == 0 {
		return nil
	}

	shuffled := make([]models.Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	batch := make([]models.Question, 0, count)
	for _, q := range shuffled {
		if len(batch) >= count {
			break
		}
		fp := q.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		batch = append(batch, q)
		s.cache.Register(fp)
	}

	for len(batch) < count {
		q := shuffled[rand.IntN(len(shuffled))]
		batch = append(batch, q)
		s.cache.Register(q.Fingerprint())
	}

	return batch
}
