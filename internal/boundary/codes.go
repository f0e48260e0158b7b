package boundary

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/flat"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/handle"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

// Code is the status reported to foreign callers. The values match the
// nlp_status enum in the public header.
type Code int32

const (
	OK              Code = 0
	NullArgument    Code = 1
	InvalidUTF8     Code = 2
	EmbeddedNUL     Code = 3
	EmptyCollection Code = 4
	// StaleHandle covers destroys and releases of memory that is no longer
	// live. Freed addresses stay quarantined by the allocation tracker, so
	// a repeat within the quarantine window is caught even if the caller
	// holds newer results.
	StaleHandle Code = 5
	// WrongHandleKind covers handles and results passed to an entry point
	// of another kind.
	WrongHandleKind Code = 6
	Construction    Code = 7
	Inference       Code = 8
	Allocation      Code = 9
	CircuitOpen     Code = 10
	TextTooLong     Code = 11
	NotInitialized  Code = 12
	Unknown         Code = 255
)

// String returns the header name of the code
func (c Code) String() string {
	switch c {
	case OK:
		return "NLP_OK"
	case NullArgument:
		return "NLP_ERR_NULL_ARGUMENT"
	case InvalidUTF8:
		return "NLP_ERR_INVALID_UTF8"
	case EmbeddedNUL:
		return "NLP_ERR_EMBEDDED_NUL"
	case EmptyCollection:
		return "NLP_ERR_EMPTY_COLLECTION"
	case StaleHandle:
		return "NLP_ERR_STALE_HANDLE"
	case WrongHandleKind:
		return "NLP_ERR_WRONG_HANDLE_KIND"
	case Construction:
		return "NLP_ERR_CONSTRUCTION"
	case Inference:
		return "NLP_ERR_INFERENCE"
	case Allocation:
		return "NLP_ERR_ALLOCATION"
	case CircuitOpen:
		return "NLP_ERR_CIRCUIT_OPEN"
	case TextTooLong:
		return "NLP_ERR_TEXT_TOO_LONG"
	case NotInitialized:
		return "NLP_ERR_NOT_INITIALIZED"
	default:
		return "NLP_ERR_UNKNOWN"
	}
}

// Status is the lowercase label used for metrics and spans.
func (c Code) Status() string {
	switch c {
	case OK:
		return "ok"
	case NullArgument:
		return "null_argument"
	case InvalidUTF8:
		return "invalid_utf8"
	case EmbeddedNUL:
		return "embedded_nul"
	case EmptyCollection:
		return "empty_collection"
	case StaleHandle:
		return "stale_handle"
	case WrongHandleKind:
		return "wrong_handle_kind"
	case Construction:
		return "construction"
	case Inference:
		return "inference"
	case Allocation:
		return "allocation"
	case CircuitOpen:
		return "circuit_open"
	case TextTooLong:
		return "text_too_long"
	case NotInitialized:
		return "not_initialized"
	default:
		return "unknown"
	}
}

var (
	ErrConstruction    = errors.New("pipeline construction failed")
	ErrInference       = errors.New("pipeline inference failed")
	ErrEmptyCollection = errors.New("required collection is empty")
	ErrNotInitialized  = errors.New("library is not initialized")
)

// Error is a failed boundary call.
type Error struct {
	Code Code
	Op   string
	Task string
	Err  error
}

func (e *Error) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Task, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail wraps err with its classified code.
func Fail(task, op string, err error) *Error {
	return &Error{Code: Classify(err), Op: op, Task: task, Err: err}
}

var classes = []struct {
	target error
	code   Code
}{
	{ErrNotInitialized, NotInitialized},
	{ErrConstruction, Construction},
	{ErrInference, Inference},
	{resilience.ErrCircuitOpen, CircuitOpen},
	{resilience.ErrTooManyRequests, CircuitOpen},
	{ErrEmptyCollection, EmptyCollection},
	{codec.ErrNullPointer, NullArgument},
	{handle.ErrNullHandle, NullArgument},
	{codec.ErrInvalidUTF8, InvalidUTF8},
	{codec.ErrEmbeddedNUL, EmbeddedNUL},
	{codec.ErrTooLong, TextTooLong},
	{handle.ErrStaleHandle, StaleHandle},
	{handle.ErrKindMismatch, WrongHandleKind},
	{memory.ErrTagMismatch, WrongHandleKind},
	{flat.ErrForeignPointer, StaleHandle},
	{memory.ErrUnknownPointer, StaleHandle},
	{memory.ErrAllocation, Allocation},
}

// Classify maps an error to its status code. Nil is OK.
func Classify(err error) Code {
	if err == nil {
		return OK
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	for _, c := range classes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return Unknown
}

// ErrorStore keeps the most recent failure in the process.
type ErrorStore struct {
	mu      sync.RWMutex
	code    Code
	message string
}

// Record stores err if it is a failure and returns its code.
func (s *ErrorStore) Record(err error) Code {
	code := Classify(err)
	if code == OK {
		return OK
	}
	s.mu.Lock()
	s.code = code
	s.message = err.Error()
	s.mu.Unlock()
	return code
}

// Last returns the most recent failure. OK and "" when nothing has failed.
func (s *ErrorStore) Last() (Code, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code, s.message
}

// Reset forgets the recorded failure.
func (s *ErrorStore) Reset() {
	s.mu.Lock()
	s.code = OK
	s.message = ""
	s.mu.Unlock()
}
