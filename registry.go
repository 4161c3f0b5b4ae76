package realtime

import (
	"sort"
	"sync"
)

// TopicKind names the class of data stream a topic identifies.
type TopicKind string

const (
	// TopicSymbol streams market data for an instrument symbol.
	TopicSymbol TopicKind = "symbol"
	// TopicTrainingJob streams progress for a model training job.
	TopicTrainingJob TopicKind = "trainingJob"
)

type topicKey struct {
	kind TopicKind
	id   string
}

// topicRegistry tracks which topics have at least one interested subscriber.
// Each (kind, id) pair carries a reference count; the client sends a
// subscribe control frame on the first acquire and an unsubscribe frame on
// the last release.
type topicRegistry struct {
	mu   sync.Mutex
	refs map[topicKey]int
}

func newTopicRegistry() *topicRegistry {
	return &topicRegistry{refs: make(map[topicKey]int)}
}

// acquire increments the reference count and reports whether this was the
// first interest in the topic.
func (r *topicRegistry) acquire(kind TopicKind, id string) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := topicKey{kind: kind, id: id}
	r.refs[key]++
	return r.refs[key] == 1
}

// release decrements the reference count and reports whether the last
// interest was removed. Releasing an unknown topic is a no-op.
func (r *topicRegistry) release(kind TopicKind, id string) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := topicKey{kind: kind, id: id}
	count, ok := r.refs[key]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(r.refs, key)
		return true
	}
	r.refs[key] = count - 1
	return false
}

// active returns all currently-referenced topics in a stable order, for
// resubscription after a reconnect.
func (r *topicRegistry) active() []topicKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]topicKey, 0, len(r.refs))
	for key := range r.refs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].id < keys[j].id
	})
	return keys
}
