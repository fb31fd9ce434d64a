package sec

import (
	"context"

	"ValueCheck/internal/domain/models"
	xlogger "ValueCheck/pkg/logger"
)

// FactsProvider serves company facts from EDGAR, decorated with the SIC
// industry from the submissions document when available.
type FactsProvider struct {
	client          *Client
	logger          *xlogger.Logger
	withSubmissions bool
}

func NewFactsProvider(client *Client, logger *xlogger.Logger, withSubmissions bool) *FactsProvider {
	return &FactsProvider{client: client, logger: logger, withSubmissions: withSubmissions}
}

// CompanyFacts ignores period. EDGAR returns every form in one document and
// the selector filters afterwards.
func (p *FactsProvider) CompanyFacts(ctx context.Context, company models.Company, _ models.Period) (*models.FactSet, error) {
	fs, err := p.client.CompanyFacts(ctx, company.CIK)
	if err != nil {
		return nil, err
	}
	if fs.EntityName == "" {
		fs.EntityName = company.Title
	}

	if p.withSubmissions {
		sub, err := p.client.Submission(ctx, company.CIK)
		if err != nil {
			p.logger.Warn("sec submissions unavailable",
				xlogger.String("ticker", company.Ticker),
				xlogger.Error(err),
			)
		} else {
			fs.Industry = sub.SICDescription
		}
	}
	return fs, nil
}
