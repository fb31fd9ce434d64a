package fmp

import (
	"context"
	"errors"
	"fmt"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/util"
)

// FactsProvider serves statements from FMP in the FactSet shape.
type FactsProvider struct {
	client *Client
}

func NewFactsProvider(client *Client) *FactsProvider {
	return &FactsProvider{client: client}
}

// CompanyFacts returns the statements of period. Quarterly requests also
// carry the annual statements, which valuation always reads.
func (p *FactsProvider) CompanyFacts(ctx context.Context, company models.Company, period models.Period) (*models.FactSet, error) {
	fs, err := p.client.Statements(ctx, company.Ticker, period)
	if err != nil {
		return nil, err
	}
	if period == models.PeriodQuarterly {
		annual, err := p.client.Statements(ctx, company.Ticker, models.PeriodAnnual)
		switch {
		case err == nil:
			mergeConcepts(fs.Concepts, annual.Concepts)
		case !errors.Is(err, models.ErrNoFacts):
			return nil, err
		}
	}
	fs.EntityName = company.Title
	if prof, err := p.client.Profile(ctx, company.Ticker); err == nil && prof != nil {
		if prof.CompanyName != "" {
			fs.EntityName = prof.CompanyName
		}
		fs.Industry = prof.Industry
	}
	return fs, nil
}

// mergeConcepts appends every fact of src into dst. The selector tells the
// periods apart by form.
func mergeConcepts(dst, src map[string]models.ConceptUnits) {
	for tag, units := range src {
		if dst[tag] == nil {
			dst[tag] = models.ConceptUnits{}
		}
		for unit, items := range units {
			dst[tag][unit] = append(dst[tag][unit], items...)
		}
	}
}

// Registry resolves tickers through the FMP profile endpoint.
type Registry struct {
	client *Client
}

func NewRegistry(client *Client) *Registry {
	return &Registry{client: client}
}

func (r *Registry) Lookup(ctx context.Context, ticker string) (models.Company, error) {
	prof, err := r.client.Profile(ctx, ticker)
	if err != nil {
		return models.Company{}, err
	}
	if prof == nil {
		return models.Company{}, fmt.Errorf("fmp profile %s: %w", ticker, models.ErrTickerNotFound)
	}
	return models.Company{
		Ticker: util.NormalizeTicker(ticker),
		CIK:    prof.CIK,
		Title:  prof.CompanyName,
	}, nil
}
