package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "VOYAGER_TEST_MODE"

var testMode atomic.Bool

func init() {
	RefreshTestMode()
}

// InTestMode reports whether binaries should exit before touching Postgres,
// Redis or the network. Test binaries set VOYAGER_TEST_MODE through the guard
// package.
func InTestMode() bool {
	return testMode.Load()
}

// RefreshTestMode re-reads VOYAGER_TEST_MODE. Any value strconv.ParseBool
// accepts as true enables it.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(on)
}
