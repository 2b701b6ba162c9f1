package state

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

type EventType int

const (
	EventUnkown EventType = iota
	// CoveredCallInitialized carries a db.CoveredCall after its transaction committed
	CoveredCallInitialized
)

func (e EventType) String() string {
	switch e {
	case CoveredCallInitialized:
		return "CoveredCallInitialized"
	default:
		return "EventUnkown"
	}
}

// EventBus fans events out to channel subscribers. Publish never blocks: a
// subscriber that is not ready to receive misses that event and stays
// subscribed.
type EventBus struct {
	subscribers map[EventType][]chan interface{}
	mu          sync.RWMutex
	logger      *log.Entry
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]chan interface{}),
		logger:      log.WithFields(log.Fields{"module": "eventbus"}),
	}
}

func (eb *EventBus) Subscribe(eventType EventType, ch chan interface{}) {
	if ch == nil {
		panic("channel == nil")
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
}

// Publish returns how many subscribers missed the event.
func (eb *EventBus) Publish(eventType EventType, data interface{}) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	missed := 0
	for _, ch := range eb.subscribers[eventType] {
		select {
		case ch <- data:
		default:
			missed++
		}
	}
	if missed > 0 {
		eb.logger.Warnf("%d subscriber(s) not ready, dropped %s event", missed, eventType)
	}
	return missed
}

func (eb *EventBus) Unsubscribe(eventType EventType, ch chan interface{}) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscribers := eb.subscribers[eventType]
	for i, subscriber := range subscribers {
		if subscriber == ch {
			eb.subscribers[eventType] = append(subscribers[:i:i], subscribers[i+1:]...)
			break
		}
	}
	if len(eb.subscribers[eventType]) == 0 {
		delete(eb.subscribers, eventType)
	}
}
