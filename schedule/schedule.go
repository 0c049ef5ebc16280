package schedule

import (
	"context"
	"log"
	"time"

	"github.com/blackhouse/concursobot/models"
)

// DefaultTopics are the subjects the bot rotates through.
var DefaultTopics = []string{
	"Penal",
	"Constitucional",
	"Raciocínio Lógico",
	"Processo Penal",
	"Direitos Humanos",
}

// Slot is a wall-clock firing time. Its position in the slot list selects
// which topic of the active day fires.
type Slot struct {
	Hour   int
	Minute int
}

// DefaultSlots fires three batches per day.
var DefaultSlots = []Slot{
	{Hour: 8},
	{Hour: 15},
	{Hour: 20},
}

// Rotation maps a day bucket (1..3) to the three topics fired on that day,
// one per slot.
type Rotation map[int][]string

// DefaultRotation spreads the five topics over a repeating three-day cycle.
var DefaultRotation = Rotation{
	1: {"Penal", "Constitucional", "Raciocínio Lógico"},
	2: {"Processo Penal", "Direitos Humanos", "Penal"},
	3: {"Constitucional", "Processo Penal", "Direitos Humanos"},
}

// Dispatcher assembles and publishes a batch for a topic. Implemented by the
// bot layer; scheduled firings and manual commands go through the same path.
type Dispatcher interface {
	Dispatch(topic string, origin string)
}

// Scheduler fires the configured slots once per day in a fixed timezone. The
// day bucket is resolved at each firing instant, so a long-running process
// follows the calendar instead of freezing the rotation it saw at startup.
// Missed firings are skipped, never queued.
type Scheduler struct {
	rotation   Rotation
	slots      []Slot
	loc        *time.Location
	dispatcher Dispatcher

	now func() time.Time
}

// New creates a Scheduler. Nil rotation or empty slots fall back to the
// defaults.
func New(rotation Rotation, slots []Slot, loc *time.Location, dispatcher Dispatcher) *Scheduler {
	if rotation == nil {
		rotation = DefaultRotation
	}
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &Scheduler{
		rotation:   rotation,
		slots:      slots,
		loc:        loc,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// DayBucket maps a date to its rotation bucket: day-of-month modulo 3, with
// multiples of 3 landing in bucket 3. Buckets are 1..3, never 0.
func DayBucket(t time.Time) int {
	bucket := t.Day() % 3
	if bucket == 0 {
		return 3
	}
	return bucket
}

// TopicsFor returns the topic list active on the given date.
func (s *Scheduler) TopicsFor(t time.Time) []string {
	return s.rotation[DayBucket(t.In(s.loc))]
}

// next returns the earliest upcoming firing time and its slot index.
func (s *Scheduler) next(now time.Time) (time.Time, int) {
	now = now.In(s.loc)

	var best time.Time
	bestSlot := -1
	for i, slot := range s.slots {
		fire := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, s.loc)
		if !fire.After(now) {
			fire = fire.AddDate(0, 0, 1)
		}
		if bestSlot == -1 || fire.Before(best) {
			best = fire
			bestSlot = i
		}
	}
	return best, bestSlot
}

// Run fires due slots until the context is cancelled. Each dispatch runs in
// its own goroutine so a slow batch cannot delay the next firing.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		fireAt, slot := s.next(s.now())
		log.Printf("Next scheduled batch at %s (slot %d)", fireAt.Format(time.RFC1123), slot)

		timer := time.NewTimer(fireAt.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		topics := s.TopicsFor(s.now())
		if slot >= len(topics) {
			log.Printf("No topic configured for slot %d, skipping firing", slot)
			continue
		}

		topic := topics[slot]
		log.Printf("Firing scheduled batch: slot %d, topic %q", slot, topic)
		go s.dispatcher.Dispatch(topic, models.OriginScheduled)
	}
}
