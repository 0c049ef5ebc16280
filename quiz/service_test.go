package quiz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhouse/concursobot/bank"
	"github.com/blackhouse/concursobot/history"
	"github.com/blackhouse/concursobot/models"
	"github.com/blackhouse/concursobot/provider"
)

// fakeFetcher replays scripted payloads, then keeps returning whatever
// fallback says (nil simulates a provider outage).
type fakeFetcher struct {
	payloads [][]byte
	fallback []byte
	calls    int
}

func (f *fakeFetcher) FetchWithRetry(ctx context.Context, count int, topic string) []byte {
	f.calls++
	if f.calls <= len(f.payloads) {
		return f.payloads[f.calls-1]
	}
	return f.fallback
}

func apiItem(n int) []byte {
	return []byte(fmt.Sprintf(
		`{"pergunta": "Pergunta número %d?", "opcoes": ["a", "b", "c"], "correta": %d, "topico": "Penal"}`,
		n, n%3,
	))
}

func newService(t *testing.T, fetcher Fetcher, cacheLimit int) (*Service, *history.Cache) {
	t.Helper()
	b, err := bank.Load()
	require.NoError(t, err)
	cache := history.New(cacheLimit, nil)
	return NewService(fetcher, cache, b), cache
}

func TestAssembleBatch_CollectsUniqueQuestions(t *testing.T) {
	fetcher := &fakeFetcher{payloads: [][]byte{
		apiItem(1), apiItem(2), apiItem(3),
	}, fallback: nil}
	svc, cache := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Penal", 3)
	require.Len(t, batch, 3)

	fps := make(map[models.Fingerprint]struct{})
	for _, q := range batch {
		_, dup := fps[q.Fingerprint()]
		assert.False(t, dup, "fingerprint repeated within one batch")
		fps[q.Fingerprint()] = struct{}{}
		assert.True(t, cache.Contains(q.Fingerprint()), "delivered question must be registered")
	}
}

func TestAssembleBatch_SkipsDuplicatesFromProvider(t *testing.T) {
	// 8 unique items with two repeats of item 1 in between, then two more
	// unique items for the loop to finish the batch with.
	payloads := [][]byte{
		apiItem(1), apiItem(2), apiItem(3), apiItem(1),
		apiItem(4), apiItem(5), apiItem(6), apiItem(1),
		apiItem(7), apiItem(8), apiItem(9), apiItem(10),
	}
	fetcher := &fakeFetcher{payloads: payloads, fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Penal", 10)
	require.Len(t, batch, 10)

	fps := make(map[models.Fingerprint]struct{})
	for _, q := range batch {
		_, dup := fps[q.Fingerprint()]
		require.False(t, dup, "fingerprint repeated within one batch")
		fps[q.Fingerprint()] = struct{}{}
	}
}

func TestAssembleBatch_SkipsRecentlyDelivered(t *testing.T) {
	fetcher := &fakeFetcher{payloads: [][]byte{
		apiItem(1), apiItem(2), apiItem(3),
	}, fallback: nil}
	svc, cache := newService(t, fetcher, 500)

	staleItems := provider.Normalize(apiItem(1), "Penal")
	require.Len(t, staleItems, 1)
	stale := staleItems[0]
	cache.Register(stale.Fingerprint())

	batch := svc.AssembleBatch(context.Background(), "Penal", 2)
	require.Len(t, batch, 2)
	for _, q := range batch {
		assert.NotEqual(t, stale.Fingerprint(), q.Fingerprint())
	}
}

func TestAssembleBatch_StopsEarlyWhenProviderDown(t *testing.T) {
	fetcher := &fakeFetcher{fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Penal", 10)
	require.Len(t, batch, 10, "fallback must still fill the batch")
	assert.Equal(t, 1, fetcher.calls, "a down provider must not be hammered through the whole budget")
}

func TestAssembleBatch_EmptyPayloadSpendsBudget(t *testing.T) {
	fetcher := &fakeFetcher{fallback: []byte(`[]`)}
	svc, _ := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Penal", 2)
	require.Len(t, batch, 2)
	assert.Equal(t, 2*tryFactor, fetcher.calls, "an empty-but-alive provider is retried through the budget")
}

func TestAssembleBatch_FallbackHonorsTopic(t *testing.T) {
	fetcher := &fakeFetcher{fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Penal", 3)
	require.Len(t, batch, 3)
	for _, q := range batch {
		assert.Equal(t, "Penal", q.Topic)
	}
}

func TestAssembleBatch_FallbackAllowsRepeatsWhenBankTooSmall(t *testing.T) {
	fetcher := &fakeFetcher{fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	// More questions than any single topic holds in the bank.
	batch := svc.AssembleBatch(context.Background(), "Direitos Humanos", 6)
	assert.Len(t, batch, 6)
}

func TestAssembleBatch_FallbackUsesFullBankForUnknownTopic(t *testing.T) {
	fetcher := &fakeFetcher{fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	batch := svc.AssembleBatch(context.Background(), "Tópico Inexistente", 5)
	assert.Len(t, batch, 5)
}

func TestAssembleBatch_NonPositiveCount(t *testing.T) {
	fetcher := &fakeFetcher{fallback: nil}
	svc, _ := newService(t, fetcher, 500)

	assert.Empty(t, svc.AssembleBatch(context.Background(), "Penal", 0))
	assert.Empty(t, svc.AssembleBatch(context.Background(), "Penal", -3))
	assert.Zero(t, fetcher.calls)
}
