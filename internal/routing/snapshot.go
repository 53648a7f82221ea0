// internal/routing/snapshot.go
//
// Immutable routing snapshot.
//
// Context
// -------
// Every routing decision reads one fully-resolved view of the persisted
// configuration: the prefix map, topic names, the source whitelist, the
// target channel, and the sender-annotation settings.  A snapshot is built
// once per reload and never mutated afterward, so any goroutine holding a
// *Snapshot reads a consistent view no matter how many reloads happen
// concurrently.
//
// Notes
// -----
// • Builders must not retain or mutate the maps after publication.
// • Oxford commas, two spaces after periods.
package routing

import "sort"

// Snapshot is the immutable configuration view consulted by Route.
type Snapshot struct {
	Topics            map[string]int64  // prefix → message-thread id
	TopicNames        map[string]string // prefix → display name
	ActiveSources     map[string]struct{}
	TargetChatID      string
	IncludeSenderInfo bool
	SenderFormat      string
}

// emptySnapshot keeps Current() total before the first reload succeeds.
func emptySnapshot() *Snapshot {
	return &Snapshot{
		Topics:        map[string]int64{},
		TopicNames:    map[string]string{},
		ActiveSources: map[string]struct{}{},
	}
}

// HasSource reports whether channelID is whitelisted for routing.
func (s *Snapshot) HasSource(channelID string) bool {
	_, ok := s.ActiveSources[channelID]
	return ok
}

// SortedPrefixes returns every known prefix in lexicographic order, so
// rejection listings and menu listings are deterministic.
func (s *Snapshot) SortedPrefixes() []string {
	out := make([]string, 0, len(s.Topics))
	for p := range s.Topics {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
