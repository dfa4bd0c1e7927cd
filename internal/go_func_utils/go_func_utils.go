package go_func_utils

import (
	"log"
	"runtime/debug"
	"sync"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger with its
// stack before being re-raised, since the curses UI owns the terminal and
// would otherwise swallow it.
func SafeGo(logger *log.Logger, fn func()) {
	go run(logger, fn)
}

// SafeGoWait is SafeGo tracked by wg, for goroutines a Shutdown waits on
func SafeGoWait(logger *log.Logger, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		run(logger, fn)
	}()
}

func run(logger *log.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("PANIC: %v\n%s", r, debug.Stack())
			panic(r)
		}
	}()
	fn()
}
