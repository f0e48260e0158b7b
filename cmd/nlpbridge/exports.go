package main

/*
#include "nlpbridge_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/boundary"
)

// Sentiment

//export new_sentiment_model
func new_sentiment_model() *C.SentimentModelWrapper {
	return (*C.SentimentModelWrapper)(rt.create(sentimentTask, nil))
}

//export new_sentiment_model_from_files
func new_sentiment_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.SentimentModelWrapper {
	return (*C.SentimentModelWrapper)(rt.createFromFiles(sentimentTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export predict_sentiment
func predict_sentiment(model *C.SentimentModelWrapper, text *C.char) *C.SentimentResult {
	return (*C.SentimentResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictSentiment(unsafe.Pointer(model), unsafe.Pointer(text))
	}))
}

//export free_sentiment_model
func free_sentiment_model(model *C.SentimentModelWrapper) {
	rt.destroy(sentimentTask, unsafe.Pointer(model))
}

//export free_sentiment_result
func free_sentiment_result(result *C.SentimentResult) {
	rt.release(sentimentTask, unsafe.Pointer(result))
}

// Part of speech

//export new_pos_model
func new_pos_model() *C.POSModelWrapper {
	return (*C.POSModelWrapper)(rt.create(posTask, nil))
}

//export new_pos_model_from_files
func new_pos_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.POSModelWrapper {
	return (*C.POSModelWrapper)(rt.createFromFiles(posTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export predict_pos
func predict_pos(model *C.POSModelWrapper, text *C.char) *C.POSResult {
	return (*C.POSResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictPOS(unsafe.Pointer(model), unsafe.Pointer(text))
	}))
}

//export free_pos_model
func free_pos_model(model *C.POSModelWrapper) {
	rt.destroy(posTask, unsafe.Pointer(model))
}

//export free_pos_result
func free_pos_result(result *C.POSResult) {
	rt.release(posTask, unsafe.Pointer(result))
}

// Named entities

//export new_ner_model
func new_ner_model() *C.NERModelWrapper {
	return (*C.NERModelWrapper)(rt.create(nerTask, nil))
}

//export new_ner_model_from_files
func new_ner_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.NERModelWrapper {
	return (*C.NERModelWrapper)(rt.createFromFiles(nerTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export predict_ner
func predict_ner(model *C.NERModelWrapper, text *C.char) *C.NERResult {
	return (*C.NERResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictNER(unsafe.Pointer(model), unsafe.Pointer(text))
	}))
}

//export free_ner_model
func free_ner_model(model *C.NERModelWrapper) {
	rt.destroy(nerTask, unsafe.Pointer(model))
}

//export free_ner_result
func free_ner_result(result *C.NERResult) {
	rt.release(nerTask, unsafe.Pointer(result))
}

// Question answering

//export new_qa_model
func new_qa_model() *C.QAModelWrapper {
	return (*C.QAModelWrapper)(rt.create(qaTask, nil))
}

//export new_qa_model_from_files
func new_qa_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.QAModelWrapper {
	return (*C.QAModelWrapper)(rt.createFromFiles(qaTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export predict_qa
func predict_qa(model *C.QAModelWrapper, question, context *C.char) *C.QAResult {
	return (*C.QAResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictQA(unsafe.Pointer(model), unsafe.Pointer(question), unsafe.Pointer(context))
	}))
}

//export free_qa_model
func free_qa_model(model *C.QAModelWrapper) {
	rt.destroy(qaTask, unsafe.Pointer(model))
}

//export free_qa_result
func free_qa_result(result *C.QAResult) {
	rt.release(qaTask, unsafe.Pointer(result))
}

// Summarization

//export new_summarization_model
func new_summarization_model() *C.SummarizationModelWrapper {
	return (*C.SummarizationModelWrapper)(rt.create(summarizationTask, nil))
}

//export new_summarization_model_from_files
func new_summarization_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.SummarizationModelWrapper {
	return (*C.SummarizationModelWrapper)(rt.createFromFiles(summarizationTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export summarize
func summarize(model *C.SummarizationModelWrapper, text *C.char) *C.SummarizationResult {
	return (*C.SummarizationResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.Summarize(unsafe.Pointer(model), unsafe.Pointer(text))
	}))
}

//export free_summarization_model
func free_summarization_model(model *C.SummarizationModelWrapper) {
	rt.destroy(summarizationTask, unsafe.Pointer(model))
}

//export free_summarization_result
func free_summarization_result(result *C.SummarizationResult) {
	rt.release(summarizationTask, unsafe.Pointer(result))
}

// Zero-shot classification

//export new_zero_shot_model
func new_zero_shot_model() *C.ZeroShotClassificationModelWrapper {
	return (*C.ZeroShotClassificationModelWrapper)(rt.create(zeroShotTask, nil))
}

//export new_zero_shot_model_from_files
func new_zero_shot_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.ZeroShotClassificationModelWrapper {
	return (*C.ZeroShotClassificationModelWrapper)(rt.createFromFiles(zeroShotTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export predict_zero_shot
func predict_zero_shot(model *C.ZeroShotClassificationModelWrapper, text *C.char, labels **C.char, n C.size_t) *C.ZeroShotResult {
	return (*C.ZeroShotResult)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictZeroShot(unsafe.Pointer(model), unsafe.Pointer(text), unsafe.Pointer(labels), uintptr(n))
	}))
}

//export free_zero_shot_model
func free_zero_shot_model(model *C.ZeroShotClassificationModelWrapper) {
	rt.destroy(zeroShotTask, unsafe.Pointer(model))
}

//export free_zero_shot_result
func free_zero_shot_result(result *C.ZeroShotResult) {
	rt.release(zeroShotTask, unsafe.Pointer(result))
}

// Translation

//export new_translation_model
func new_translation_model() *C.TranslationModelWrapper {
	return (*C.TranslationModelWrapper)(rt.create(translationTask, nil))
}

//export new_translation_model_from_files
func new_translation_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.TranslationModelWrapper {
	return (*C.TranslationModelWrapper)(rt.createFromFiles(translationTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export translate
func translate(model *C.TranslationModelWrapper, text, sourceLang, targetLang *C.char) *C.char {
	return (*C.char)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.Translate(unsafe.Pointer(model), unsafe.Pointer(text), unsafe.Pointer(sourceLang), unsafe.Pointer(targetLang))
	}))
}

//export free_translation_model
func free_translation_model(model *C.TranslationModelWrapper) {
	rt.destroy(translationTask, unsafe.Pointer(model))
}

//export free_translation_result
func free_translation_result(result *C.char) {
	rt.freeString(unsafe.Pointer(result))
}

// Text generation

//export new_text_generation_model
func new_text_generation_model() *C.TextGenerationModelWrapper {
	return (*C.TextGenerationModelWrapper)(rt.create(textGenerationTask, nil))
}

//export new_text_generation_model_from_files
func new_text_generation_model_from_files(model, config, vocab, merges *C.char, modelType C.int) *C.TextGenerationModelWrapper {
	return (*C.TextGenerationModelWrapper)(rt.createFromFiles(textGenerationTask,
		unsafe.Pointer(model), unsafe.Pointer(config), unsafe.Pointer(vocab), unsafe.Pointer(merges), int(modelType)))
}

//export generate_text
func generate_text(model *C.TextGenerationModelWrapper, prompt, prefix *C.char) *C.char {
	return (*C.char)(rt.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.GenerateText(unsafe.Pointer(model), unsafe.Pointer(prompt), unsafe.Pointer(prefix))
	}))
}

//export free_text_generation_model
func free_text_generation_model(model *C.TextGenerationModelWrapper) {
	rt.destroy(textGenerationTask, unsafe.Pointer(model))
}

//export free_text_generation_result
func free_text_generation_result(result *C.char) {
	rt.freeString(unsafe.Pointer(result))
}

// Strings, status and introspection

//export nlp_free_string
func nlp_free_string(s *C.char) {
	rt.freeString(unsafe.Pointer(s))
}

//export nlp_last_error_code
func nlp_last_error_code() C.int {
	code, _ := rt.lastError()
	return C.int(code)
}

//export nlp_last_error_message
func nlp_last_error_message() *C.char {
	return (*C.char)(rt.lastErrorMessage())
}

//export nlp_handle_error_code
func nlp_handle_error_code(handle unsafe.Pointer) C.int {
	return C.int(rt.handleStatus(handle))
}

//export nlp_live_handles
func nlp_live_handles() C.size_t {
	return C.size_t(rt.liveHandles())
}

//export nlp_live_allocations
func nlp_live_allocations() C.size_t {
	return C.size_t(rt.liveAllocations())
}

//export nlp_stats
func nlp_stats() *C.char {
	return (*C.char)(rt.call((*boundary.Bridge).StatsText))
}

//export nlp_metrics
func nlp_metrics() *C.char {
	return (*C.char)(rt.call((*boundary.Bridge).MetricsText))
}

//export nlp_version
func nlp_version() *C.char {
	return (*C.char)(rt.call((*boundary.Bridge).VersionText))
}
