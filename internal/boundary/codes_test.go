package boundary

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/flat"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/handle"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"null text", codec.ErrNullPointer, NullArgument},
		{"null handle", handle.ErrNullHandle, NullArgument},
		{"invalid utf8", &codec.EncodingError{Offset: 3}, InvalidUTF8},
		{"embedded nul", fmt.Errorf("record 0: %w", codec.ErrEmbeddedNUL), EmbeddedNUL},
		{"too long", codec.ErrTooLong, TextTooLong},
		{"empty labels", ErrEmptyCollection, EmptyCollection},
		{"stale", handle.ErrStaleHandle, StaleHandle},
		{"foreign result", flat.ErrForeignPointer, StaleHandle},
		{"double free", memory.ErrUnknownPointer, StaleHandle},
		{"wrong kind", handle.ErrKindMismatch, WrongHandleKind},
		{"wrong result shape", fmt.Errorf("release: %w", memory.ErrTagMismatch), WrongHandleKind},
		{"allocation", memory.ErrAllocation, Allocation},
		{"open breaker", resilience.ErrCircuitOpen, CircuitOpen},
		{"half-open limit", resilience.ErrTooManyRequests, CircuitOpen},
		{"construction", fmt.Errorf("%w: %w", ErrConstruction, memory.ErrAllocation), Construction},
		{"inference", fmt.Errorf("%w: boom", ErrInference), Inference},
		{"not initialized", ErrNotInitialized, NotInitialized},
		{"boundary error", &Error{Code: CircuitOpen, Op: "predict", Err: errors.New("x")}, CircuitOpen},
		{"unknown", errors.New("something else"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCodeNames(t *testing.T) {
	assert.Equal(t, "NLP_OK", OK.String())
	assert.Equal(t, "NLP_ERR_EMPTY_COLLECTION", EmptyCollection.String())
	assert.Equal(t, "NLP_ERR_UNKNOWN", Code(77).String())
	assert.Equal(t, "ok", OK.Status())
	assert.Equal(t, "circuit_open", CircuitOpen.Status())
	assert.Equal(t, "unknown", Unknown.Status())
}

func TestErrorFormatting(t *testing.T) {
	err := Fail("ner", "predict", handle.ErrStaleHandle)
	assert.Equal(t, StaleHandle, err.Code)
	assert.Equal(t, "ner predict: handle is not live", err.Error())
	assert.ErrorIs(t, err, handle.ErrStaleHandle)

	err = Fail("", "free_string", memory.ErrUnknownPointer)
	assert.Equal(t, "free_string: "+memory.ErrUnknownPointer.Error(), err.Error())
}

func TestErrorStoreKeepsLastFailure(t *testing.T) {
	var store ErrorStore

	code, msg := store.Last()
	assert.Equal(t, OK, code)
	assert.Empty(t, msg)

	assert.Equal(t, NullArgument, store.Record(Fail("sentiment", "predict", codec.ErrNullPointer)))
	assert.Equal(t, OK, store.Record(nil))

	code, msg = store.Last()
	assert.Equal(t, NullArgument, code)
	assert.Contains(t, msg, "text pointer is null")

	store.Reset()
	code, _ = store.Last()
	assert.Equal(t, OK, code)
}
