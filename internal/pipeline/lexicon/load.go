package lexicon

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// MaxResourceBytes bounds a single decompressed resource file.
const MaxResourceBytes = 64 << 20

var ErrUnsupportedFormat = errors.New("unsupported resource format")

//go:embed resources/default.yaml
var defaultDocument []byte

// loader parses resource files once per distinct file set. Concurrent
// constructions with the same files share one load.
type loader struct {
	logger *zap.Logger
	group  singleflight.Group

	defaultOnce sync.Once
	defaultRes  *Resources
	defaultErr  error

	mu    sync.Mutex
	cache map[string]*Resources
}

func newLoader(logger *zap.Logger) *loader {
	return &loader{
		logger: logger,
		cache:  make(map[string]*Resources),
	}
}

func (l *loader) defaults() (*Resources, error) {
	l.defaultOnce.Do(func() {
		var doc Document
		if err := yaml.Unmarshal(defaultDocument, &doc); err != nil {
			l.defaultErr = fmt.Errorf("built-in lexicon: %w", err)
			return
		}
		l.defaultRes, l.defaultErr = compile(doc, DefaultParams())
		if l.defaultRes != nil {
			l.defaultRes.Source = "builtin"
		}
	})
	return l.defaultRes, l.defaultErr
}

// load returns the resources for files. Nil files selects the built-in set.
func (l *loader) load(ctx context.Context, files *pipeline.ModelFiles) (*Resources, error) {
	if files == nil {
		return l.defaults()
	}

	resolved, err := files.Resolve()
	if err != nil {
		return nil, err
	}
	key, err := cacheKey(resolved)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	res, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return res, nil
	}

	ch := l.group.DoChan(key, func() (interface{}, error) {
		l.mu.Lock()
		cached, ok := l.cache[key]
		l.mu.Unlock()
		if ok {
			return cached, nil
		}

		start := time.Now()
		res, err := l.loadFiles(resolved)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[key] = res
		l.mu.Unlock()

		l.logger.Info("lexicon resources loaded",
			zap.String("model", resolved.Model),
			zap.String("config", resolved.Config),
			zap.String("vocab", resolved.Vocab),
			zap.String("merges", resolved.Merges),
			zap.Stringer("model_type", resolved.Type),
			zap.Duration("duration", time.Since(start)),
		)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*Resources), nil
	}
}

func cacheKey(files pipeline.ModelFiles) (string, error) {
	var stamp strings.Builder
	stamp.WriteString(files.Key())
	for _, path := range []string{files.Model, files.Config, files.Vocab, files.Merges} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", path, err)
		}
		fmt.Fprintf(&stamp, "|%d:%d", info.Size(), info.ModTime().UnixNano())
	}
	return stamp.String(), nil
}

func (l *loader) loadFiles(files pipeline.ModelFiles) (*Resources, error) {
	base, err := l.defaults()
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := decodeFile(files.Model, &doc); err != nil {
		return nil, fmt.Errorf("model %q: %w", files.Model, err)
	}

	var builtin Document
	if err := yaml.Unmarshal(defaultDocument, &builtin); err != nil {
		return nil, fmt.Errorf("built-in lexicon: %w", err)
	}

	params := base.Params
	if files.Config != "" {
		var override Params
		if err := decodeFile(files.Config, &override); err != nil {
			return nil, fmt.Errorf("config %q: %w", files.Config, err)
		}
		params = params.overlay(override)
	}

	res, err := compile(builtin.overlay(doc), params)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", files.Model, err)
	}
	res.Source = files.Model
	res.ModelType = files.Type

	if files.Vocab != "" {
		words, err := readVocab(files.Vocab)
		if err != nil {
			return nil, fmt.Errorf("vocab %q: %w", files.Vocab, err)
		}
		res.withVocab(words)
	}
	if files.Merges != "" {
		phrases, err := readMerges(files.Merges)
		if err != nil {
			return nil, fmt.Errorf("merges %q: %w", files.Merges, err)
		}
		res.withMerges(phrases)
	}
	return res, nil
}

// readResource reads path, transparently decompressing gzip and zstd, and
// returns the contents with the extension of the uncompressed name.
func readResource(path string) ([]byte, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	name := strings.ToLower(path)
	mtype := mimetype.Detect(raw)
	switch {
	case mtype.Is("application/gzip"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		if raw, err = readLimited(zr); err != nil {
			return nil, "", fmt.Errorf("gzip: %w", err)
		}
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".gzip")
	case mtype.Is("application/zstd"):
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		if raw, err = readLimited(zr); err != nil {
			return nil, "", fmt.Errorf("zstd: %w", err)
		}
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".zst"), ".zstd")
	}
	return raw, filepath.Ext(name), nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResourceBytes {
		return nil, fmt.Errorf("resource exceeds %d bytes", MaxResourceBytes)
	}
	return data, nil
}

// decodeFile unmarshals a YAML, TOML or JSON resource into out.
func decodeFile(path string, out any) error {
	data, ext, err := readResource(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".toml":
		return toml.Unmarshal(data, out)
	case ".json":
		return sonic.Unmarshal(data, out)
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is("application/json"):
		return sonic.Unmarshal(data, out)
	case detected.Is("text/plain"):
		return yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected.String())
	}
}

// readVocab reads a word list: one token per line, or a JSON array or
// token-to-id object.
func readVocab(path string) ([]string, error) {
	data, ext, err := readResource(path)
	if err != nil {
		return nil, err
	}

	if ext == ".json" || mimetype.Detect(data).Is("application/json") {
		var ids map[string]int
		if err := sonic.Unmarshal(data, &ids); err == nil {
			words := make([]string, 0, len(ids))
			for w := range ids {
				words = append(words, w)
			}
			return words, nil
		}
		var list []string
		if err := sonic.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("vocab json: %w", err)
		}
		return list, nil
	}

	return lines(data), nil
}

// readMerges reads multi-word expressions, one per line. Lines starting
// with '#' are comments.
func readMerges(path string) ([]string, error) {
	data, _, err := readResource(path)
	if err != nil {
		return nil, err
	}
	var phrases []string
	for _, line := range lines(data) {
		if strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	return phrases, nil
}

func lines(data []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}
