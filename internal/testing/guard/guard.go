// Package guard switches the process into test mode on import so binaries
// linked into tests skip network startup.
package guard

import (
	"os"
	"sync"
)

// EnvVar is the variable app.InTestMode reads.
const EnvVar = "VOYAGER_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(EnvVar) == "" {
			_ = os.Setenv(EnvVar, "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}
