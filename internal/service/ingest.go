package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"fitleague/internal/parser"
	"fitleague/internal/store"
)

// IDStrategy selects how record ids are derived from a day's messages
type IDStrategy string

const (
	// IDPosition uses the message's index in the day's batch. Re-ingesting
	// a batch is only idempotent if the batch is fetched in the same order.
	IDPosition IDStrategy = "position"
	// IDContent hashes sender, text and timestamp, so reordered or newly
	// interleaved messages keep their ids.
	IDContent IDStrategy = "content"
)

// RecordID derives the id of the i-th message of a day's batch
func RecordID(dayKey string, i int, msg store.Message, strategy IDStrategy) string {
	if strategy == IDContent {
		h := sha256.New()
		h.Write([]byte(msg.Sender))
		h.Write([]byte{'|'})
		h.Write([]byte(msg.Text))
		h.Write([]byte{'|'})
		h.Write([]byte(msg.At.UTC().Format(time.RFC3339)))
		return dayKey + "#" + hex.EncodeToString(h.Sum(nil))[:12]
	}
	return dayKey + "#" + strconv.Itoa(i)
}

type recordKey struct {
	participant string
	id          string
}

// Ingest classifies a day's messages and appends the workouts found to
// state.Activities[day], skipping any (participant, record id) pair the
// day already holds. It returns how many records were added.
//
// The day's list is only created once a first workout is found.
func Ingest(state *store.State, day time.Time, msgs []store.Message, strategy IDStrategy) int {
	state.Normalize()
	key := store.DayKey(day)
	records := state.Activities[key]

	seen := make(map[recordKey]bool, len(records))
	for _, r := range records {
		seen[recordKey{r.Participant, r.RecordID}] = true
	}

	added := 0
	for i, msg := range msgs {
		parsed, ok := parser.Classify(msg.Text)
		if !ok {
			continue
		}

		participant := state.EnsureUser(msg.Sender)
		id := RecordID(key, i, msg, strategy)
		k := recordKey{participant, id}
		if seen[k] {
			continue
		}
		seen[k] = true

		records = append(records, store.ActivityRecord{
			Participant: participant,
			Type:        parsed.Type,
			Metrics:     parsed.Metrics,
			RecordID:    id,
		})
		added++
	}

	if added > 0 {
		state.Activities[key] = records
	}
	return added
}
