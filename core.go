package corebasic

import (
	"fmt"
	"strings"
)

// haltError wraps the error (if any) behind a halt, from the halt-by-panic
// idiom of this package's ancestry. Step does not use it: the dispatch loop
// neither panics nor recovers, and reports faults as RuntimeError values.
type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("VM halted: %v", err.error)
	}
	return "VM halted"
}
func (err haltError) Unwrap() error { return err.error }

// logging is a small leveled-logf mixin embedded in the VM, used only for optional trace/diagnostic output -- never for errors that
// must reach the caller, which always travel as values (ParseError,
// RuntimeError) instead.
type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
