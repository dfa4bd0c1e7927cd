package go_func_utils

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeGoWait_RunsAndWaits(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 3; i++ {
		SafeGoWait(logger, &wg, func() {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	wg.Wait()
	assert.Equal(t, 3, ran)
}

func TestSafeGo_Runs(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	done := make(chan struct{})
	SafeGo(logger, func() { close(done) })
	<-done
}

func TestRun_LogsAndRepanics(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	assert.PanicsWithValue(t, "boom", func() {
		run(logger, func() { panic("boom") })
	})
	assert.Contains(t, buf.String(), "PANIC: boom")
	assert.Contains(t, buf.String(), "goroutine")
}
