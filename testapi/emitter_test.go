package testapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	var e Emitter[int]
	var got []string

	e.Event(func(v int) { got = append(got, "first") })
	sub := e.Event(func(v int) { got = append(got, "second") })
	e.Event(func(v int) { got = append(got, "third") })

	e.Fire(1)
	assert.Equal(t, []string{"first", "second", "third"}, got)

	got = nil
	sub.Dispose()
	sub.Dispose()
	e.Fire(2)
	assert.Equal(t, []string{"first", "third"}, got)
}

func TestEmitterDispose(t *testing.T) {
	var e Emitter[TestRunEvent]
	fired := 0
	e.Event(func(TestRunEvent) { fired++ })

	e.Dispose()
	e.Fire(TestRunFinishedEvent{RunID: "r"})
	e.Event(func(TestRunEvent) { fired++ }).Dispose()
	e.Fire(TestRunFinishedEvent{RunID: "r"})

	assert.Zero(t, fired)
}

func TestEmitterListenerMaySubscribe(t *testing.T) {
	var e Emitter[string]
	var got []string

	e.Event(func(v string) {
		got = append(got, v)
		if v == "a" {
			e.Event(func(v string) { got = append(got, "late "+v) })
		}
	})

	e.Fire("a")
	e.Fire("b")
	assert.Equal(t, []string{"a", "b", "late b"}, got)
}
