package main

/*
#include "nlpbridge_types.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"go.uber.org/multierr"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/boundary"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/flat"
)

// shape is the size and field offsets of one record.
type shape struct {
	size    uintptr
	offsets []uintptr
}

type layout struct {
	name   string
	header shape
	record shape
}

func (l layout) check() error {
	if l.header.size != l.record.size {
		return fmt.Errorf("%s: header size %d, record size %d", l.name, l.header.size, l.record.size)
	}
	for i := range l.header.offsets {
		if l.header.offsets[i] != l.record.offsets[i] {
			return fmt.Errorf("%s: field %d at offset %d in header, %d in record",
				l.name, i, l.header.offsets[i], l.record.offsets[i])
		}
	}
	return nil
}

func flatShape[T any](f flat.Flat[T]) shape {
	return shape{unsafe.Sizeof(f), []uintptr{unsafe.Offsetof(f.Data), unsafe.Offsetof(f.Count)}}
}

// layouts pairs every struct in nlpbridge_types.h with the Go record
// written into it.
func layouts() []layout {
	var (
		sentiment C.SentimentResult
		tag       C.POSTag
		tags      C.POSResult
		entity    C.Entity
		entities  C.NERResult
		answer    C.QAAnswer
		answers   C.QAResult
		summaries C.SummarizationResult
		label     C.ZeroShotLabel
		labels    C.ZeroShotResult

		sentimentRec boundary.SentimentRecord
		tagRec       boundary.TagRecord
		entityRec    boundary.EntityRecord
		answerRec    boundary.AnswerRecord
		labelRec     boundary.LabelRecord
	)

	return []layout{
		{
			name:   "SentimentResult",
			header: shape{unsafe.Sizeof(sentiment), []uintptr{unsafe.Offsetof(sentiment.label), unsafe.Offsetof(sentiment.score)}},
			record: shape{unsafe.Sizeof(sentimentRec), []uintptr{unsafe.Offsetof(sentimentRec.Label), unsafe.Offsetof(sentimentRec.Score)}},
		},
		{
			name: "POSTag",
			header: shape{unsafe.Sizeof(tag), []uintptr{
				unsafe.Offsetof(tag.word), unsafe.Offsetof(tag.score), unsafe.Offsetof(tag.label),
			}},
			record: shape{unsafe.Sizeof(tagRec), []uintptr{
				unsafe.Offsetof(tagRec.Word), unsafe.Offsetof(tagRec.Score), unsafe.Offsetof(tagRec.Label),
			}},
		},
		{
			name:   "POSResult",
			header: shape{unsafe.Sizeof(tags), []uintptr{unsafe.Offsetof(tags.tags), unsafe.Offsetof(tags.count)}},
			record: flatShape(boundary.TagResult{}),
		},
		{
			name: "Entity",
			header: shape{unsafe.Sizeof(entity), []uintptr{
				unsafe.Offsetof(entity.word), unsafe.Offsetof(entity.score), unsafe.Offsetof(entity.label),
				unsafe.Offsetof(entity.offset_begin), unsafe.Offsetof(entity.offset_end),
			}},
			record: shape{unsafe.Sizeof(entityRec), []uintptr{
				unsafe.Offsetof(entityRec.Word), unsafe.Offsetof(entityRec.Score), unsafe.Offsetof(entityRec.Label),
				unsafe.Offsetof(entityRec.OffsetBegin), unsafe.Offsetof(entityRec.OffsetEnd),
			}},
		},
		{
			name:   "NERResult",
			header: shape{unsafe.Sizeof(entities), []uintptr{unsafe.Offsetof(entities.entities), unsafe.Offsetof(entities.count)}},
			record: flatShape(boundary.EntityResult{}),
		},
		{
			name: "QAAnswer",
			header: shape{unsafe.Sizeof(answer), []uintptr{
				unsafe.Offsetof(answer.score), unsafe.Offsetof(answer.start),
				unsafe.Offsetof(answer.end), unsafe.Offsetof(answer.answer),
			}},
			record: shape{unsafe.Sizeof(answerRec), []uintptr{
				unsafe.Offsetof(answerRec.Score), unsafe.Offsetof(answerRec.Start),
				unsafe.Offsetof(answerRec.End), unsafe.Offsetof(answerRec.Answer),
			}},
		},
		{
			name:   "QAResult",
			header: shape{unsafe.Sizeof(answers), []uintptr{unsafe.Offsetof(answers.answers), unsafe.Offsetof(answers.count)}},
			record: flatShape(boundary.AnswerResult{}),
		},
		{
			name:   "SummarizationResult",
			header: shape{unsafe.Sizeof(summaries), []uintptr{unsafe.Offsetof(summaries.summaries), unsafe.Offsetof(summaries.count)}},
			record: flatShape(boundary.SummaryResult{}),
		},
		{
			name:   "ZeroShotLabel",
			header: shape{unsafe.Sizeof(label), []uintptr{unsafe.Offsetof(label.text), unsafe.Offsetof(label.score)}},
			record: shape{unsafe.Sizeof(labelRec), []uintptr{unsafe.Offsetof(labelRec.Text), unsafe.Offsetof(labelRec.Score)}},
		},
		{
			name:   "ZeroShotResult",
			header: shape{unsafe.Sizeof(labels), []uintptr{unsafe.Offsetof(labels.labels), unsafe.Offsetof(labels.count)}},
			record: flatShape(boundary.LabelResult{}),
		},
	}
}

// checkLayout reports every record whose Go layout differs from the header.
func checkLayout() error {
	var err error
	for _, l := range layouts() {
		err = multierr.Append(err, l.check())
	}
	return err
}
