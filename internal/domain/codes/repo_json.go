package codes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	chunksDirName    = "codes_chunks"
	manifestFileName = "manifest.json"
	singleFileName   = "codes_2025.json"
)

// manifest describes a chunked dataset layout.
type manifest struct {
	ChunkCount        int             `json:"chunkCount"`
	TotalCodes        int             `json:"totalCodes"`
	TargetChunkSizeMB float64         `json:"targetChunkSizeMB"`
	CreatedAt         string          `json:"createdAt"`
	Chunks            []manifestChunk `json:"chunks"`
}

type manifestChunk struct {
	FileName string `json:"fileName"`
}

// JSONSource loads the code collection from a data directory. When a chunk
// manifest is present the dataset is read chunk by chunk; otherwise it falls
// back to a single file.
type JSONSource struct {
	dataDir string
	logger  zerolog.Logger
	chunked bool
}

// NewJSONSource creates a source rooted at dataDir. The layout (chunked or
// single-file) is detected once at construction.
func NewJSONSource(dataDir string, logger zerolog.Logger) *JSONSource {
	s := &JSONSource{dataDir: dataDir, logger: logger}
	if _, err := os.Stat(s.manifestPath()); err == nil {
		s.chunked = true
	}
	return s
}

func (s *JSONSource) manifestPath() string {
	return filepath.Join(s.dataDir, chunksDirName, manifestFileName)
}

// Load reads the full collection. Any missing file or malformed JSON is
// returned as an error; a partially read dataset is never returned.
func (s *JSONSource) Load(ctx context.Context) ([]*Code, error) {
	if s.chunked {
		return s.loadChunks(ctx, s.manifestPath())
	}
	return s.loadSingleFile(ctx)
}

// Description implements Source.
func (s *JSONSource) Description() string {
	if s.chunked {
		return "chunked"
	}
	return "single-file"
}

func (s *JSONSource) loadChunks(ctx context.Context, manifestPath string) ([]*Code, error) {
	start := time.Now()

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	s.logger.Info().
		Int("chunks", m.ChunkCount).
		Int("total_codes", m.TotalCodes).
		Msg("loading codes from chunked files")

	all := make([]*Code, 0, m.TotalCodes)
	for _, chunk := range m.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunkPath := filepath.Join(s.dataDir, chunksDirName, chunk.FileName)
		records, err := readCodeFile(chunkPath)
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", chunk.FileName, err)
		}
		all = append(all, records...)
		s.logger.Debug().
			Str("chunk", chunk.FileName).
			Int("codes", len(records)).
			Msg("chunk loaded")
	}

	s.logger.Info().
		Int("codes", len(all)).
		Dur("elapsed", time.Since(start)).
		Msg("code dataset loaded")
	return all, nil
}

func (s *JSONSource) loadSingleFile(ctx context.Context) ([]*Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	path := filepath.Join(s.dataDir, singleFileName)

	records, err := readCodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", singleFileName, err)
	}

	s.logger.Info().
		Int("codes", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("code dataset loaded")
	return records, nil
}

func readCodeFile(path string) ([]*Code, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*Code
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return records, nil
}
