package livesync

import "sync"

// Feed fans "something changed" signals out to listeners of a topic. A
// signal carries no payload; listeners re-read the full document. Signals
// coalesce, so a slow listener sees at most one pending wake-up.
type Feed struct {
	mu     sync.Mutex
	topics map[string]map[chan struct{}]struct{}
}

func NewFeed() *Feed {
	return &Feed{topics: make(map[string]map[chan struct{}]struct{})}
}

func EventTopic(eventID string) string { return "events/" + eventID }

func NotificationTopic(accountID string) string { return "notifications/" + accountID }

// Listen registers for topic. The returned func unregisters.
func (f *Feed) Listen(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	subs, ok := f.topics[topic]
	if !ok {
		subs = make(map[chan struct{}]struct{})
		f.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.topics[topic], ch)
			if len(f.topics[topic]) == 0 {
				delete(f.topics, topic)
			}
		})
	}
}

// Publish wakes every listener of topic without blocking.
func (f *Feed) Publish(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.topics[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listeners reports how many listeners a topic has.
func (f *Feed) Listeners(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics[topic])
}
