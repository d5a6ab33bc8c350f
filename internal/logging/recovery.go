package logging

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value and the goroutine stack at
// the point of the panic.
type PanicError struct {
	Component string
	Value     any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AsPanic reports whether err came from a recovered panic.
func AsPanic(err error) (*PanicError, bool) {
	var pe *PanicError
	ok := errors.As(err, &pe)
	return pe, ok
}

// RecoveryHandler isolates one unit of work (a report, a write batch) so a
// panic inside it becomes an error for that unit only.
type RecoveryHandler struct {
	component string
	log       *Logger
	onPanic   func(*PanicError)
}

// NewRecoveryHandler returns a handler that logs recovered panics to log.
// A nil log uses New(component).
func NewRecoveryHandler(component string, log *Logger) *RecoveryHandler {
	if log == nil {
		log = New(component)
	}
	return &RecoveryHandler{component: component, log: log}
}

// OnPanic registers a callback run after a panic is logged.
func (r *RecoveryHandler) OnPanic(fn func(*PanicError)) *RecoveryHandler {
	r.onPanic = fn
	return r
}

// WrapError runs fn and returns its error, or a *PanicError if it panicked.
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		pe := &PanicError{Component: r.component, Value: rec, Stack: string(debug.Stack())}
		r.log.Error("panic_recovered", map[string]any{"stack": pe.Stack}, pe)
		if r.onPanic != nil {
			r.onPanic(pe)
		}
		err = pe
	}()
	return fn()
}
