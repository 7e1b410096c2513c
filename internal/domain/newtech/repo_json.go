package newtech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	ntapFileName = "ntap_approved.json"
	tptFileName  = "tpt_approved.json"
)

// JSONSource reads the NTAP and TPT program datasets from JSON files in a
// data directory.
type JSONSource struct {
	dataDir string
	logger  zerolog.Logger
}

// NewJSONSource creates a source reading from dataDir.
func NewJSONSource(dataDir string, logger zerolog.Logger) *JSONSource {
	return &JSONSource{
		dataDir: dataDir,
		logger:  logger.With().Str("component", "newtech_source").Logger(),
	}
}

// Load reads both program files. Both must be present and well formed.
func (s *JSONSource) Load(ctx context.Context) (*NtapData, *TptData, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ntap := &NtapData{}
	if err := s.readFile(ntapFileName, ntap); err != nil {
		return nil, nil, err
	}

	tpt := &TptData{}
	if err := s.readFile(tptFileName, tpt); err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("ntap_fiscal_year", ntap.FiscalYear).
		Int("ntap_technologies", len(ntap.Technologies)).
		Int("drg_payments", len(ntap.DRGBasePayments)).
		Int("tpt_technologies", len(tpt.Technologies)).
		Int("apc_payments", len(tpt.APCBasePayments)).
		Msg("Program data loaded")

	return ntap, tpt, nil
}

func (s *JSONSource) readFile(name string, out interface{}) error {
	path := filepath.Join(s.dataDir, name)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open program data %s: %w", name, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("decode program data %s: %w", name, err)
	}
	return nil
}
