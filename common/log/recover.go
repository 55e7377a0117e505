package log

import (
	"runtime/debug"

	"github.com/op/go-logging"
)

// RecoverToLog runs f and converts any panic into an error-level log
// line plus a stack trace instead of letting it unwind the goroutine and
// crash the process. Adapted from kryptco-kr/panicrecover.go
// (RecoverToLog, used there to guard krd's enclave-client and ssh-agent
// goroutines); here it guards the per-direction reassembler task and
// each classified frame, matching spec.md §7's "a frame-level decode
// failure MUST NOT terminate the classifier" for failure modes a typed
// *DecodeError can't express.
func RecoverToLog(f func(), logger *logging.Logger) {
	defer func() {
		if x := recover(); x != nil {
			if logger != nil {
				logger.Errorf("run time panic: %v", x)
				logger.Error(string(debug.Stack()))
			}
		}
	}()
	f()
}
