package index

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/searchseed/searchseed/pkg/keyphrase"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// SnapshotEntry is one keyphrase in the persisted index.
type SnapshotEntry struct {
	Text     string  `msgpack:"t"`
	Category string  `msgpack:"c"`
	Score    float64 `msgpack:"s"`
	Rank     int     `msgpack:"r"`
}

// Snapshot is the on-disk index format.
type Snapshot struct {
	Version   int             `msgpack:"v"`
	RunID     string          `msgpack:"run_id"`
	CreatedAt time.Time       `msgpack:"created_at"`
	Entries   []SnapshotEntry `msgpack:"entries"`
}

// WriteSnapshot persists a run's final keyphrases to path. Entries are
// stored in rank order.
func WriteSnapshot(path, runID string, phrases []keyphrase.RankedKeyphrase) error {
	snap := Snapshot{
		Version:   snapshotVersion,
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Entries:   make([]SnapshotEntry, len(phrases)),
	}
	for i, kp := range phrases {
		snap.Entries[i] = SnapshotEntry{
			Text:     kp.Text,
			Category: kp.Category,
			Score:    kp.Score,
			Rank:     i + 1,
		}
	}

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	log.Debugf("Snapshot written: %s (%d entries)", path, len(snap.Entries))
	return nil
}

// LoadSnapshot reads a snapshot from path, validates it and rebuilds a
// completer from its entries.
func LoadSnapshot(path string) (*Completer, *Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, nil, fmt.Errorf("snapshot %s has unsupported version %d (expected %d)",
			path, snap.Version, snapshotVersion)
	}

	phrases := make([]keyphrase.RankedKeyphrase, len(snap.Entries))
	for i, e := range snap.Entries {
		if e.Text == "" {
			return nil, nil, fmt.Errorf("snapshot %s has empty entry at rank %d", path, e.Rank)
		}
		phrases[i] = keyphrase.RankedKeyphrase{Text: e.Text, Category: e.Category, Score: e.Score}
	}

	log.Debugf("Snapshot loaded: %s (%d entries)", path, len(snap.Entries))
	return Build(phrases), &snap, nil
}
