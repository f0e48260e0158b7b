package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ModelType is the architecture family a set of model files belongs to.
type ModelType int

const (
	ModelBert ModelType = iota
	ModelDistilBert
	ModelRoberta
	ModelXLMRoberta
	ModelElectra
	ModelAlbert
	ModelXLNet
	ModelBart
	ModelMarian
	ModelT5
	ModelGPT2
)

// ModelTypeFromCode maps a foreign integer code to a ModelType.
// Unknown codes fall back to Bert.
func ModelTypeFromCode(code int) ModelType {
	if code < int(ModelBert) || code > int(ModelGPT2) {
		return ModelBert
	}
	return ModelType(code)
}

// String returns the string representation of the model type
func (m ModelType) String() string {
	switch m {
	case ModelBert:
		return "bert"
	case ModelDistilBert:
		return "distilbert"
	case ModelRoberta:
		return "roberta"
	case ModelXLMRoberta:
		return "xlm-roberta"
	case ModelElectra:
		return "electra"
	case ModelAlbert:
		return "albert"
	case ModelXLNet:
		return "xlnet"
	case ModelBart:
		return "bart"
	case ModelMarian:
		return "marian"
	case ModelT5:
		return "t5"
	case ModelGPT2:
		return "gpt2"
	default:
		return "unknown"
	}
}

var ErrModelFileMissing = errors.New("model file not found")

// ModelFiles names the resources a model is built from. Only Model is
// required; the others are optional.
type ModelFiles struct {
	Model  string
	Config string
	Vocab  string
	Merges string
	Type   ModelType
}

// Key identifies the file set for load deduplication.
func (f ModelFiles) Key() string {
	return strings.Join([]string{f.Model, f.Config, f.Vocab, f.Merges, f.Type.String()}, "\x1f")
}

var (
	modelPatterns = []string{
		"**/lexicon.{yaml,yml,toml,json}",
		"**/lexicon.{yaml,yml,toml,json}.{gz,zst}",
		"**/model.{yaml,yml,toml,json}",
		"**/model.{yaml,yml,toml,json}.{gz,zst}",
	}
	configPatterns = []string{"**/config.{yaml,yml,toml,json}"}
	vocabPatterns  = []string{"**/vocab.txt", "**/vocab.json"}
	mergesPatterns = []string{"**/merges.txt"}
)

// Resolve validates the file set. When Model names a directory and the
// other paths are empty, the directory is searched for each resource.
func (f ModelFiles) Resolve() (ModelFiles, error) {
	if f.Model == "" {
		return f, fmt.Errorf("model path is empty: %w", ErrModelFileMissing)
	}

	info, err := os.Stat(f.Model)
	if err != nil {
		return f, fmt.Errorf("model path %q: %w", f.Model, ErrModelFileMissing)
	}

	if info.IsDir() {
		dir := f.Model
		if f.Model, err = findFirst(dir, modelPatterns); err != nil {
			return f, err
		}
		if f.Model == "" {
			return f, fmt.Errorf("no model resource under %q: %w", dir, ErrModelFileMissing)
		}
		if f.Config == "" {
			f.Config, _ = findFirst(dir, configPatterns)
		}
		if f.Vocab == "" {
			f.Vocab, _ = findFirst(dir, vocabPatterns)
		}
		if f.Merges == "" {
			f.Merges, _ = findFirst(dir, mergesPatterns)
		}
	}

	for _, optional := range []string{f.Config, f.Vocab, f.Merges} {
		if optional == "" {
			continue
		}
		if _, err := os.Stat(optional); err != nil {
			return f, fmt.Errorf("resource %q: %w", optional, ErrModelFileMissing)
		}
	}
	return f, nil
}

// findFirst returns the shallowest match of the first pattern that matches.
func findFirst(dir string, patterns []string) (string, error) {
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", fmt.Errorf("search %q in %q: %w", pattern, dir, err)
		}
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		for _, m := range matches[1:] {
			if strings.Count(m, "/") < strings.Count(best, "/") {
				best = m
			}
		}
		return filepath.Join(dir, filepath.FromSlash(best)), nil
	}
	return "", nil
}
