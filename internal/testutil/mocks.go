// Package testutil provides testing utilities and mocks shared by package tests.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// MockBackend is a mock implementation of pipeline.Backend.
type MockBackend struct {
	mock.Mock
}

// NewMockBackend creates a mock backend whose Name is "mock".
func NewMockBackend() *MockBackend {
	m := new(MockBackend)
	m.On("Name").Return("mock").Maybe()
	return m
}

func (m *MockBackend) Name() string {
	return m.Called().String(0)
}

func (m *MockBackend) NewSentiment(ctx context.Context, opts pipeline.Options) (pipeline.SentimentModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.SentimentModel), args.Error(1)
}

func (m *MockBackend) NewPOS(ctx context.Context, opts pipeline.Options) (pipeline.POSModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.POSModel), args.Error(1)
}

func (m *MockBackend) NewNER(ctx context.Context, opts pipeline.Options) (pipeline.NERModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.NERModel), args.Error(1)
}

func (m *MockBackend) NewQA(ctx context.Context, opts pipeline.Options) (pipeline.QAModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.QAModel), args.Error(1)
}

func (m *MockBackend) NewSummarization(ctx context.Context, opts pipeline.Options) (pipeline.SummarizationModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.SummarizationModel), args.Error(1)
}

func (m *MockBackend) NewZeroShot(ctx context.Context, opts pipeline.Options) (pipeline.ZeroShotModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.ZeroShotModel), args.Error(1)
}

func (m *MockBackend) NewTranslation(ctx context.Context, opts pipeline.Options) (pipeline.TranslationModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.TranslationModel), args.Error(1)
}

func (m *MockBackend) NewTextGeneration(ctx context.Context, opts pipeline.Options) (pipeline.TextGenerationModel, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pipeline.TextGenerationModel), args.Error(1)
}

// MockSentimentModel is a mock implementation of pipeline.SentimentModel.
type MockSentimentModel struct {
	mock.Mock
}

func (m *MockSentimentModel) PredictSentiment(ctx context.Context, texts []string) ([]pipeline.Sentiment, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.Sentiment), args.Error(1)
}

// Close is recorded when the boundary reclaims the model.
func (m *MockSentimentModel) Close() error {
	return m.Called().Error(0)
}

// MockPOSModel is a mock implementation of pipeline.POSModel.
type MockPOSModel struct {
	mock.Mock
}

func (m *MockPOSModel) PredictPOS(ctx context.Context, texts []string) ([][]pipeline.Tag, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]pipeline.Tag), args.Error(1)
}

// MockNERModel is a mock implementation of pipeline.NERModel.
type MockNERModel struct {
	mock.Mock
}

func (m *MockNERModel) PredictNER(ctx context.Context, texts []string) ([][]pipeline.Entity, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]pipeline.Entity), args.Error(1)
}

// MockQAModel is a mock implementation of pipeline.QAModel.
type MockQAModel struct {
	mock.Mock
}

func (m *MockQAModel) PredictQA(ctx context.Context, inputs []pipeline.QAInput, topK, maxAnswerLen int) ([][]pipeline.Answer, error) {
	args := m.Called(ctx, inputs, topK, maxAnswerLen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]pipeline.Answer), args.Error(1)
}

// MockSummarizationModel is a mock implementation of pipeline.SummarizationModel.
type MockSummarizationModel struct {
	mock.Mock
}

func (m *MockSummarizationModel) Summarize(ctx context.Context, texts []string) ([]string, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockZeroShotModel is a mock implementation of pipeline.ZeroShotModel.
type MockZeroShotModel struct {
	mock.Mock
}

func (m *MockZeroShotModel) PredictZeroShot(ctx context.Context, texts []string, labels []string, maxLen int) ([][]pipeline.Label, error) {
	args := m.Called(ctx, texts, labels, maxLen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]pipeline.Label), args.Error(1)
}

// MockTranslationModel is a mock implementation of pipeline.TranslationModel.
type MockTranslationModel struct {
	mock.Mock
}

func (m *MockTranslationModel) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	args := m.Called(ctx, texts, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockTextGenerationModel is a mock implementation of pipeline.TextGenerationModel.
type MockTextGenerationModel struct {
	mock.Mock
}

func (m *MockTextGenerationModel) Generate(ctx context.Context, prompts []string, prefix string) ([]string, error) {
	args := m.Called(ctx, prompts, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
