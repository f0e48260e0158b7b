package boundary

import (
	"unsafe"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/flat"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// The records below are written into C memory and read by foreign callers.
// Field order and types must match nlpbridge_types.h.

// SentimentRecord mirrors SentimentResult.
type SentimentRecord struct {
	Label *byte
	Score float32
}

// TagRecord mirrors POSTag.
type TagRecord struct {
	Word  *byte
	Score float32
	Label *byte
}

// EntityRecord mirrors Entity.
type EntityRecord struct {
	Word        *byte
	Score       float32
	Label       *byte
	OffsetBegin uintptr
	OffsetEnd   uintptr
}

// AnswerRecord mirrors QAAnswer.
type AnswerRecord struct {
	Score  float32
	Start  uintptr
	End    uintptr
	Answer *byte
}

// LabelRecord mirrors ZeroShotLabel.
type LabelRecord struct {
	Text  *byte
	Score float64
}

type (
	TagResult     = flat.Flat[TagRecord]
	EntityResult  = flat.Flat[EntityRecord]
	AnswerResult  = flat.Flat[AnswerRecord]
	SummaryResult = flat.Flat[*byte]
	LabelResult   = flat.Flat[LabelRecord]
)

func releaseText(c *codec.Codec, p **byte) {
	_ = c.Release(*p)
	*p = nil
}

func offset(n int) uintptr {
	if n < 0 {
		return 0
	}
	return uintptr(n)
}

func exportSentiment(c *codec.Codec, s pipeline.Sentiment) (unsafe.Pointer, error) {
	return flat.Box(c.Allocator(), func(rec *SentimentRecord) error {
		var err error
		rec.Label, err = c.Encode(s.Polarity.String())
		rec.Score = float32(s.Score)
		return err
	}, dropSentiment(c))
}

func dropSentiment(c *codec.Codec) func(*SentimentRecord) {
	return func(rec *SentimentRecord) {
		releaseText(c, &rec.Label)
	}
}

func exportTags(c *codec.Codec, tags []pipeline.Tag) (unsafe.Pointer, error) {
	return flat.Export(c.Allocator(), len(tags), func(i int, rec *TagRecord) error {
		var err error
		if rec.Word, err = c.Encode(tags[i].Word); err != nil {
			return err
		}
		rec.Score = float32(tags[i].Score)
		rec.Label, err = c.Encode(tags[i].Label)
		return err
	}, dropTag(c))
}

func dropTag(c *codec.Codec) func(*TagRecord) {
	return func(rec *TagRecord) {
		releaseText(c, &rec.Word)
		releaseText(c, &rec.Label)
	}
}

func exportEntities(c *codec.Codec, entities []pipeline.Entity) (unsafe.Pointer, error) {
	return flat.Export(c.Allocator(), len(entities), func(i int, rec *EntityRecord) error {
		e := entities[i]
		var err error
		if rec.Word, err = c.Encode(e.Word); err != nil {
			return err
		}
		rec.Score = float32(e.Score)
		rec.OffsetBegin = offset(e.Begin)
		rec.OffsetEnd = offset(e.End)
		rec.Label, err = c.Encode(e.Label)
		return err
	}, dropEntity(c))
}

func dropEntity(c *codec.Codec) func(*EntityRecord) {
	return func(rec *EntityRecord) {
		releaseText(c, &rec.Word)
		releaseText(c, &rec.Label)
	}
}

func exportAnswers(c *codec.Codec, answers []pipeline.Answer) (unsafe.Pointer, error) {
	return flat.Export(c.Allocator(), len(answers), func(i int, rec *AnswerRecord) error {
		a := answers[i]
		rec.Score = float32(a.Score)
		rec.Start = offset(a.Start)
		rec.End = offset(a.End)
		var err error
		rec.Answer, err = c.Encode(a.Text)
		return err
	}, dropAnswer(c))
}

func dropAnswer(c *codec.Codec) func(*AnswerRecord) {
	return func(rec *AnswerRecord) {
		releaseText(c, &rec.Answer)
	}
}

func exportSummaries(c *codec.Codec, summaries []string) (unsafe.Pointer, error) {
	return flat.Export(c.Allocator(), len(summaries), func(i int, rec **byte) error {
		var err error
		*rec, err = c.Encode(summaries[i])
		return err
	}, dropSummary(c))
}

func dropSummary(c *codec.Codec) func(**byte) {
	return func(rec **byte) {
		releaseText(c, rec)
	}
}

func exportLabels(c *codec.Codec, labels []pipeline.Label) (unsafe.Pointer, error) {
	return flat.Export(c.Allocator(), len(labels), func(i int, rec *LabelRecord) error {
		var err error
		rec.Text, err = c.Encode(labels[i].Text)
		rec.Score = labels[i].Score
		return err
	}, dropLabel(c))
}

func dropLabel(c *codec.Codec) func(*LabelRecord) {
	return func(rec *LabelRecord) {
		releaseText(c, &rec.Text)
	}
}

func exportText(c *codec.Codec, s string) (unsafe.Pointer, error) {
	p, err := c.Encode(s)
	return unsafe.Pointer(p), err
}

func releaseTextResult(c *codec.Codec, p unsafe.Pointer) error {
	return c.Release((*byte)(p))
}
