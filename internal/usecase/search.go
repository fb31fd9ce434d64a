package usecase

import (
	"context"
	"sort"
	"strings"

	"ValueCheck/internal/domain/models"
)

const (
	minQueryLen      = 2
	maxCandidates    = 200
	maxSearchResults = 10
)

// Match scores, highest first.
const (
	scoreExact        = 100
	scoreTickerPrefix = 80
	scoreTitlePrefix  = 60
	scoreWordPrefix   = 40
	scoreContains     = 20
)

// EntrySource supplies the searchable company list.
type EntrySource interface {
	Entries(ctx context.Context) ([]models.Company, error)
}

type Search struct {
	entries EntrySource
}

func NewSearch(entries EntrySource) *Search {
	return &Search{entries: entries}
}

type candidate struct {
	company models.Company
	score   int
}

// Query ranks companies by ticker and title match. Queries shorter than two
// characters return no results.
func (s *Search) Query(ctx context.Context, query string) (*models.SearchResponse, error) {
	q := strings.TrimSpace(query)
	resp := &models.SearchResponse{Query: q, Results: []models.SearchResult{}}
	if len(q) < minQueryLen {
		return resp, nil
	}

	entries, err := s.entries.Entries(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToUpper(q)
	var hits []candidate
	for _, c := range entries {
		if score := matchScore(needle, c); score > 0 {
			hits = append(hits, candidate{company: c, score: score})
		}
		if len(hits) > maxCandidates {
			break
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return len(hits[i].company.Title) < len(hits[j].company.Title)
	})
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}
	for _, h := range hits {
		resp.Results = append(resp.Results, models.SearchResult{Ticker: h.company.Ticker, Title: h.company.Title})
	}
	return resp, nil
}

func matchScore(needle string, c models.Company) int {
	ticker := strings.ToUpper(c.Ticker)
	title := strings.ToUpper(c.Title)
	switch {
	case ticker == needle:
		return scoreExact
	case strings.HasPrefix(ticker, needle):
		return scoreTickerPrefix
	case strings.HasPrefix(title, needle):
		return scoreTitlePrefix
	case strings.Contains(title, " "+needle):
		return scoreWordPrefix
	case strings.Contains(title, needle):
		return scoreContains
	default:
		return 0
	}
}
