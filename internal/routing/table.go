// internal/routing/table.go
//
// Routing table: owns the current snapshot and the reload protocol.
//
// Context
// -------
// The table keeps the live *Snapshot in an atomic.Pointer, so Current() is a
// single lock-free load.  Reload() reads all three record kinds from the
// store first, assembles a new snapshot, and only then swaps the pointer:
// readers never block on a reload and never observe a half-applied view.
// If any fetch fails the old snapshot stays current and the error is
// returned to the caller, which must not report success to the admin.
//
// Concurrent reloads are coalesced through singleflight; whichever call
// reaches the store first does the work and everyone gets its result.
package routing

import (
	"context"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/topicrelay/internal/metrics"
	"github.com/yanizio/topicrelay/internal/store"
)

// Table publishes the current routing snapshot.
type Table struct {
	store *store.Store
	log   *zap.SugaredLogger

	cur atomic.Pointer[Snapshot]
	sfg singleflight.Group
}

// NewTable returns a Table seeded with an empty snapshot.  Callers normally
// Reload immediately after construction so routing starts with real data.
func NewTable(st *store.Store, log *zap.SugaredLogger) *Table {
	t := &Table{store: st, log: log}
	t.cur.Store(emptySnapshot())
	return t
}

// Current returns the live snapshot.  Never nil, never blocks.
func (t *Table) Current() *Snapshot { return t.cur.Load() }

// Reload rebuilds the snapshot from the store and publishes it.  On any
// fetch error the previous snapshot remains current.
func (t *Table) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := t.sfg.Do("reload", func() (any, error) {
		snap, err := t.build(ctx)
		if err != nil {
			metrics.SnapshotReloadErrorsTotal.Inc()
			return nil, err
		}
		t.cur.Store(snap)
		metrics.SnapshotReloadTotal.Inc()
		t.log.Infow("snapshot reloaded",
			"topics", len(snap.Topics),
			"active_sources", len(snap.ActiveSources),
			"target", snap.TargetChatID,
		)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// build performs the read phase.  No table lock is held here.
func (t *Table) build(ctx context.Context) (*Snapshot, error) {
	topics, err := t.store.Topics(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := t.store.ActiveSourceChannelIDs(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := t.store.Config(ctx)
	if err != nil {
		return nil, err
	}

	snap := emptySnapshot()
	for _, tp := range topics {
		p := store.NormalizePrefix(tp.Prefix)
		snap.Topics[p] = tp.TopicID
		snap.TopicNames[p] = tp.Name
	}
	for _, id := range sources {
		snap.ActiveSources[id] = struct{}{}
	}
	snap.TargetChatID = cfg[store.KeyTargetChatID]
	snap.SenderFormat = cfg[store.KeySenderFormat]
	if b, err := strconv.ParseBool(cfg[store.KeyIncludeSenderInfo]); err == nil {
		snap.IncludeSenderInfo = b
	}
	return snap, nil
}
