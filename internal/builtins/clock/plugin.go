package clock

import (
	"time"

	"github.com/xirelogy/go-lox/internal/runtime"
	"github.com/xirelogy/go-lox/internal/value"
)

func init() {
	runtime.Register(runtime.Spec{
		Name:    "clock",
		Arity:   0,
		Handler: runClock,
	})
}

// runClock returns wall-clock seconds since the Unix epoch.
func runClock(_ []value.Value) (value.Value, error) {
	now := time.Now()
	return value.Number(float64(now.UnixNano()) / float64(time.Second)), nil
}
