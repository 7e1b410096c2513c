package codes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const defaultSearchLimit = 50

// searchEntry is one row of the flattened search corpus.
type searchEntry struct {
	code       string
	lowerCode  string
	searchText string // lowercased "code + description"
	codeType   string
}

// Service owns the in-memory code index. Load populates all structures once;
// every operation afterwards is a read over immutable state, so queries can
// run with unbounded concurrency.
type Service struct {
	source Source
	calc   *PaymentCalculator
	logger zerolog.Logger

	mu    sync.Mutex // guards Load
	ready atomic.Bool

	all         []*Code
	byCode      map[string]*Code
	byType      map[string][]*Code
	searchIndex []searchEntry
}

// NewService creates a code service over the given source. The index is
// empty until Load is called.
func NewService(source Source, calc *PaymentCalculator, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		calc:   calc,
		logger: logger,
		byCode: make(map[string]*Code),
		byType: make(map[string][]*Code),
	}
}

// Load reads the full collection from the source and builds the indexes.
// It is idempotent: once the index is published, further calls are no-ops.
// On failure no partial state is published and the error is returned for
// the caller to treat as fatal.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready.Load() {
		return nil
	}

	records, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load codes: %w", err)
	}

	byCode := make(map[string]*Code, len(records))
	byType := make(map[string][]*Code)
	searchIndex := make([]searchEntry, 0, len(records))

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("load codes: record %d: %w", i, err)
		}

		byCode[rec.Code] = rec

		t := rec.NormalizedType()
		byType[t] = append(byType[t], rec)

		searchIndex = append(searchIndex, searchEntry{
			code:       rec.Code,
			lowerCode:  strings.ToLower(rec.Code),
			searchText: strings.ToLower(rec.Code + " " + rec.Description),
			codeType:   t,
		})
	}

	s.all = records
	s.byCode = byCode
	s.byType = byType
	s.searchIndex = searchIndex
	s.ready.Store(true)

	evt := s.logger.Info().Int("codes", len(records))
	for t, recs := range byType {
		evt = evt.Int(strings.ToLower(t), len(recs))
	}
	evt.Msg("code index built")
	return nil
}

// Ready reports whether the index has been loaded and published.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// GetCode looks up a single code, trying the raw string first and the
// uppercased form as a fallback. Returns ErrNotFound when absent.
func (s *Service) GetCode(code string) (*CodeDetail, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	rec, ok := s.byCode[code]
	if !ok {
		rec, ok = s.byCode[strings.ToUpper(code)]
	}
	if !ok {
		return nil, ErrNotFound
	}
	return rec.ToDetail(s.calc), nil
}

// ListOptions controls pagination, filtering, and ordering of listings.
type ListOptions struct {
	Limit     int
	Offset    int
	Type      string // normalized type filter; empty means all types
	SortBy    string // "code" or "description"
	SortOrder string // "asc" or "desc"
}

// ListResult is a page of code summaries.
type ListResult struct {
	Codes   []*CodeSummary `json:"codes"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"hasMore"`
}

// GetAllCodes returns a sorted page of records, optionally filtered by type.
func (s *Service) GetAllCodes(opts ListOptions) (*ListResult, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var pool []*Code
	if opts.Type != "" {
		pool = s.byType[NormalizeType(opts.Type)]
	} else {
		pool = s.all
	}

	results := make([]*Code, len(pool))
	copy(results, pool)

	desc := opts.SortOrder == "desc"
	sortKey := func(c *Code) string {
		if opts.SortBy == "description" {
			return c.Description
		}
		return c.Code
	}
	sort.SliceStable(results, func(i, j int) bool {
		cmp := strings.Compare(sortKey(results[i]), sortKey(results[j]))
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	total := len(results)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	page := make([]*CodeSummary, 0, end-start)
	for _, rec := range results[start:end] {
		page = append(page, rec.ToSummary())
	}

	return &ListResult{
		Codes:   page,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	}, nil
}

// SearchResult is a ranked page of matches plus the total match count.
type SearchResult struct {
	Codes []*CodeSummary `json:"codes"`
	Total int            `json:"total"`
	Query string         `json:"query"`
}

type scoredMatch struct {
	code  string
	score int
}

// Search ranks codes against a free-text query using weighted term matching:
// an exact code match scores 100, a substring code match 80, and every query
// term found in the code+description corpus adds 10. Queries shorter than
// two characters return an empty result set.
func (s *Service) Search(query string, limit int, codeType string) (*SearchResult, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 2 {
		return &SearchResult{Codes: []*CodeSummary{}, Total: 0, Query: query}, nil
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	typeFilter := ""
	if codeType != "" {
		typeFilter = NormalizeType(codeType)
	}

	searchTerm := strings.ToLower(trimmed)
	terms := strings.Fields(searchTerm)

	var matches []scoredMatch
	for _, entry := range s.searchIndex {
		if typeFilter != "" && entry.codeType != typeFilter {
			continue
		}

		score := 0
		if entry.lowerCode == searchTerm {
			score = 100
		} else if strings.Contains(entry.lowerCode, searchTerm) {
			score = 80
		}

		for _, term := range terms {
			if strings.Contains(entry.searchText, term) {
				score += 10
			}
		}

		if score > 0 {
			matches = append(matches, scoredMatch{code: entry.code, score: score})
		}
	}

	// Equal scores order lexicographically by code so result order does not
	// depend on load order.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].code < matches[j].code
	})

	top := matches
	if len(top) > limit {
		top = top[:limit]
	}

	summaries := make([]*CodeSummary, 0, len(top))
	for _, m := range top {
		if rec, ok := s.byCode[m.code]; ok {
			summaries = append(summaries, rec.ToSummary())
		}
	}

	return &SearchResult{
		Codes: summaries,
		Total: len(matches),
		Query: query,
	}, nil
}

// Stats summarizes the loaded dataset.
type Stats struct {
	TotalCodes int            `json:"totalCodes"`
	IsLoaded   bool           `json:"isLoaded"`
	Types      map[string]int `json:"types"`
	LoadMethod string         `json:"loadMethod"`
}

// GetStats returns dataset statistics. Unlike queries, stats never fail:
// before load they report an empty, not-loaded dataset so health checks can
// observe progress.
func (s *Service) GetStats() *Stats {
	if !s.ready.Load() {
		return &Stats{Types: make(map[string]int), LoadMethod: s.source.Description()}
	}
	stats := &Stats{
		TotalCodes: len(s.all),
		IsLoaded:   true,
		Types:      make(map[string]int),
		LoadMethod: s.source.Description(),
	}
	for t, recs := range s.byType {
		stats.Types[t] = len(recs)
	}
	return stats
}
