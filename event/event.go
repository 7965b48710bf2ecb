// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EventQueueSize = 100

	// AllEvents subscribes to every event type
	AllEvents = EventType("*")
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

// Event is a single crowdsale log entry. Sequence and ID are assigned when
// the event is written to the journal.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Block     uint64
	Sequence  uint64
	ID        string
	Data      any
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// Subscriber receives events from the bus. Close must be idempotent.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

// channelSubscriber delivers events to a buffered channel. Events are
// dropped when the buffer is full so a slow reader cannot stall publishing.
type channelSubscriber struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
	onDrop func()
}

func newChannelSubscriber(buffer int, onDrop func()) *channelSubscriber {
	return &channelSubscriber{
		ch:     make(chan Event, buffer),
		onDrop: onDrop,
	}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
	default:
		if c.onDrop != nil {
			c.onDrop()
		}
	}
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

type EventBus struct {
	subscribers  map[EventType]map[EventSubscriberId]Subscriber
	metrics      *eventMetrics
	lastSubId    EventSubscriberId
	mu           sync.RWMutex
	logger       *slog.Logger
	subscriberWg sync.WaitGroup
}

// NewEventBus creates a new EventBus. Metrics are registered when
// promRegistry is not nil.
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]Subscriber),
		logger:      logger.With("component", "event"),
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	return e
}

func subscriberKind(sub Subscriber) string {
	if _, ok := sub.(*channelSubscriber); ok {
		return "in-memory"
	}
	return "remote"
}

func (e *EventBus) addSubscriber(eventType EventType, sub Subscriber) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subId := e.lastSubId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]Subscriber)
	}
	e.subscribers[eventType][subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType), subscriberKind(sub)).Inc()
	}
	return subId
}

// Subscribe returns a channel receiving events of the given type. Use
// AllEvents to receive every event.
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	chSub := newChannelSubscriber(
		EventQueueSize,
		func() {
			e.logger.Warn(
				"subscriber queue full, dropping event",
				"type", eventType,
			)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(string(eventType), "dropped").Inc()
			}
		},
	)
	subId := e.addSubscriber(eventType, chSub)
	return subId, chSub.ch
}

// SubscribeFunc calls handlerFunc for each event of the given type from a
// dedicated goroutine. A panicking handler is logged and keeps receiving
// events.
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	e.subscriberWg.Add(1)
	go func() {
		defer e.subscriberWg.Done()
		for evt := range evtCh {
			e.callHandler(handlerFunc, evt)
		}
	}()
	return subId
}

func (e *EventBus) callHandler(handlerFunc EventHandlerFunc, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(
				"event handler panic",
				"type", evt.Type,
				"panic", r,
			)
		}
	}()
	handlerFunc(evt)
}

// RegisterSubscriber adds an external Subscriber implementation
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	return e.addSubscriber(eventType, sub)
}

// Unsubscribe removes a subscriber and closes it
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	evtTypeSubs, ok := e.subscribers[eventType]
	if !ok {
		e.mu.Unlock()
		return
	}
	sub, ok := evtTypeSubs[subId]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(evtTypeSubs, subId)
	if len(evtTypeSubs) == 0 {
		delete(e.subscribers, eventType)
	}
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType), subscriberKind(sub)).Dec()
	}
	e.mu.Unlock()
	sub.Close()
}

type subItem struct {
	eventType EventType
	id        EventSubscriberId
	sub       Subscriber
}

// Publish delivers an event to the subscribers of its type and to the
// AllEvents subscribers. Subscribers that fail delivery are removed.
func (e *EventBus) Publish(evt Event) {
	e.mu.RLock()
	var subList []subItem
	for _, subType := range []EventType{evt.Type, AllEvents} {
		for id, sub := range e.subscribers[subType] {
			subList = append(subList, subItem{eventType: subType, id: id, sub: sub})
		}
	}
	e.mu.RUnlock()
	for _, item := range subList {
		if err := e.deliver(item.sub, evt); err != nil {
			e.Unsubscribe(item.eventType, item.id)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(
					string(evt.Type),
					subscriberKind(item.sub),
				).Inc()
			}
			e.logger.Debug(
				"event delivery error",
				"type", evt.Type,
				"error", err,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(evt.Type)).Inc()
	}
}

func (e *EventBus) deliver(sub Subscriber, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber deliver panic: %v", r)
		}
	}()
	return sub.Deliver(evt)
}

// Stop closes all subscribers and waits for SubscribeFunc goroutines to
// exit. The bus can be reused afterward.
func (e *EventBus) Stop() {
	e.mu.Lock()
	subsCopy := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]Subscriber)
	e.mu.Unlock()
	for _, evtTypeSubs := range subsCopy {
		for _, sub := range evtTypeSubs {
			sub.Close()
		}
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
	e.subscriberWg.Wait()
}
