// Package events 提供进程内的事件分发
// 与解复用器一样是单写者模型：DispatchEvent 在调用方 goroutine 中同步执行所有监听器
package events

import (
	"sync"
)

type EventType string

type Event struct {
	Type   EventType
	Object interface{}
}

func NewEvent(eventType EventType, object interface{}) *Event {
	return &Event{
		Type:   eventType,
		Object: object,
	}
}

type EventHandler func(event *Event)

type EventListener struct {
	Handler EventHandler
}

func NewEventListener(handler EventHandler) *EventListener {
	return &EventListener{Handler: handler}
}

type Dispatcher interface {
	AddEventListener(eventType EventType, listener *EventListener)
	RemoveEventListener(eventType EventType, listener *EventListener)
	RemoveAllEventListener(eventType EventType)
	DispatchEvent(event *Event)
}

type dispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]*EventListener
	// wildcard 监听所有类型
	wildcard []*EventListener
}

// NewDispatcher 创建分发器
func NewDispatcher() Dispatcher {
	return &dispatcher{
		listeners: make(map[EventType][]*EventListener),
	}
}

// AllEvents 作为 eventType 传入 AddEventListener 时监听所有事件
const AllEvents EventType = "*"

func (d *dispatcher) AddEventListener(eventType EventType, listener *EventListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if eventType == AllEvents {
		d.wildcard = append(d.wildcard, listener)
		return
	}
	d.listeners[eventType] = append(d.listeners[eventType], listener)
}

func (d *dispatcher) RemoveEventListener(eventType EventType, listener *EventListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if eventType == AllEvents {
		d.wildcard = removeListener(d.wildcard, listener)
		return
	}
	d.listeners[eventType] = removeListener(d.listeners[eventType], listener)
}

func (d *dispatcher) RemoveAllEventListener(eventType EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if eventType == AllEvents {
		d.wildcard = nil
		return
	}
	delete(d.listeners, eventType)
}

func (d *dispatcher) DispatchEvent(event *Event) {
	if event == nil {
		return
	}
	d.mu.RLock()
	targets := make([]*EventListener, 0, len(d.listeners[event.Type])+len(d.wildcard))
	targets = append(targets, d.listeners[event.Type]...)
	targets = append(targets, d.wildcard...)
	d.mu.RUnlock()

	for _, l := range targets {
		l.Handler(event)
	}
}

func removeListener(list []*EventListener, target *EventListener) []*EventListener {
	out := list[:0]
	for _, l := range list {
		if l != target {
			out = append(out, l)
		}
	}
	return out
}
