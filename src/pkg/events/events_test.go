package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()

	var got []string
	a := NewEventListener(func(e *Event) { got = append(got, "a:"+string(e.Type)) })
	b := NewEventListener(func(e *Event) { got = append(got, "b:"+string(e.Type)) })
	all := NewEventListener(func(e *Event) { got = append(got, "all:"+string(e.Type)) })

	d.AddEventListener("x", a)
	d.AddEventListener("x", b)
	d.AddEventListener(AllEvents, all)

	d.DispatchEvent(NewEvent("x", nil))
	d.DispatchEvent(NewEvent("y", nil))
	d.DispatchEvent(nil)
	assert.Equal(t, []string{"a:x", "b:x", "all:x", "all:y"}, got)

	got = nil
	d.RemoveEventListener("x", a)
	d.RemoveEventListener(AllEvents, all)
	d.DispatchEvent(NewEvent("x", 1))
	assert.Equal(t, []string{"b:x"}, got)

	got = nil
	d.RemoveAllEventListener("x")
	d.DispatchEvent(NewEvent("x", 1))
	assert.Empty(t, got)
}

func TestDispatcher_EventObject(t *testing.T) {
	d := NewDispatcher()
	var obj interface{}
	d.AddEventListener("t", NewEventListener(func(e *Event) { obj = e.Object }))
	d.DispatchEvent(NewEvent("t", 42))
	assert.Equal(t, 42, obj)
}
