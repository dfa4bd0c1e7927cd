package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testEvent(signal string) TimerEvent {
	return TimerEvent{
		Timestamp:        time.Date(2026, 3, 1, 7, 30, 0, 0, time.FixedZone("CET", 3600)),
		Signal:           signal,
		ProgramID:        "spinning-tabata",
		Segment:          "Tabata Set 1",
		Phase:            "Work!",
		Round:            2,
		Rounds:           8,
		RemainingSeconds: 3,
		ElapsedSeconds:   183,
	}
}

func TestFormatPayload(t *testing.T) {
	raw, err := FormatPayload(testEvent("countdown_warning"))
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	timer := got["timer"]
	require.NotNil(t, timer)
	assert.Equal(t, "2026-03-01T06:30:00Z", timer["timestamp"])
	assert.Equal(t, "countdown_warning", timer["event"])
	assert.Equal(t, "spinning-tabata", timer["program"])
	assert.Equal(t, "Tabata Set 1", timer["segment"])
	assert.Equal(t, "Work!", timer["phase"])
	assert.Equal(t, float64(2), timer["round"])
	assert.Equal(t, float64(8), timer["rounds"])
	assert.Equal(t, float64(3), timer["remaining_seconds"])
	assert.Equal(t, float64(183), timer["elapsed_seconds"])
}

func TestFormatPayload_OmitsRoundsOutsideIntervals(t *testing.T) {
	ev := testEvent("phase_changed")
	ev.Round, ev.Rounds, ev.Segment = 0, 0, ""

	raw, err := FormatPayload(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"round"`)
	assert.NotContains(t, string(raw), `"rounds"`)
	assert.NotContains(t, string(raw), `"segment"`)
	assert.Contains(t, string(raw), `"remaining_seconds":3`)
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	require.NoError(t, f.Publish(testEvent("phase_changed")))
	require.Len(t, f.Events(), 1)
	require.Len(t, f.Payloads(), 1)
	assert.Contains(t, string(f.Payloads()[0]), "phase_changed")

	f.PublishError = errors.New("broker down")
	assert.Error(t, f.Publish(testEvent("workout_complete")))
	assert.Len(t, f.Events(), 1)

	require.NoError(t, f.Close())
	assert.True(t, f.Closed())
}

func TestAsyncPublisher_PublishesInOrderAndFlushesOnClose(t *testing.T) {
	fake := NewFakePublisher()
	a := NewAsyncPublisher(fake, log.New(&bytes.Buffer{}, "", 0), 16)

	for _, s := range []string{"phase_changed", "countdown_warning", "workout_complete"} {
		assert.True(t, a.Enqueue(testEvent(s)))
	}
	require.NoError(t, a.Close())

	events := fake.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "phase_changed", events[0].Signal)
	assert.Equal(t, "workout_complete", events[2].Signal)
	assert.True(t, fake.Closed())

	assert.False(t, a.Enqueue(testEvent("phase_changed")), "closed publisher rejects events")
	assert.NoError(t, a.Close())
}

// blockingPublisher holds every Publish until release is closed
type blockingPublisher struct {
	*FakePublisher
	started sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) Publish(event TimerEvent) error {
	b.started.Do(func() { close(b.entered) })
	<-b.release
	return b.FakePublisher.Publish(event)
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	blocking := &blockingPublisher{
		FakePublisher: NewFakePublisher(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	a := NewAsyncPublisher(blocking, log.New(&buf, "", 0), 1)

	require.True(t, a.Enqueue(testEvent("first")))
	<-blocking.entered // first is being published, queue is empty again

	assert.True(t, a.Enqueue(testEvent("second")))
	assert.False(t, a.Enqueue(testEvent("third")))
	assert.Equal(t, 1, a.Dropped())
	assert.Contains(t, buf.String(), "queue full")

	close(blocking.release)
	require.NoError(t, a.Close())
	assert.Len(t, blocking.Events(), 2)
}

func TestAsyncPublisher_LogsPublishErrors(t *testing.T) {
	var buf bytes.Buffer
	fake := NewFakePublisher()
	fake.PublishError = errors.New("broker down")
	a := NewAsyncPublisher(fake, log.New(&buf, "", 0), 4)

	a.Enqueue(testEvent("phase_changed"))
	require.NoError(t, a.Close())
	assert.Contains(t, buf.String(), "publish phase_changed failed: broker down")
}
