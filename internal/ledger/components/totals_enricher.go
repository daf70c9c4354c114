package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/ledger/service"
	"golang.org/x/sync/errgroup"
)

type TotalsEnricherImpl struct {
	directory   service.CompanyDirectory
	concurrency int
	logger      *slog.Logger
}

func NewTotalsEnricher(directory service.CompanyDirectory, concurrency int, logger *slog.Logger) service.TotalsEnricher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &TotalsEnricherImpl{
		directory:   directory,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Enrich looks up each group's company concurrently. A company that no longer exists
// leaves its group unnamed.
func (e *TotalsEnricherImpl) Enrich(ctx context.Context, totals []*closing.CompanyTotal) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, total := range totals {
		total := total
		g.Go(func() error {
			c, err := e.directory.Get(ctx, total.CompanyID)
			if err != nil {
				if errors.Is(err, company.ErrCompanyNotFound{}) {
					e.logger.Warn("Aggregated company not found", "company_id", total.CompanyID.String())
					return nil
				}
				return err
			}
			total.CompanyName = c.Name
			total.BillingType = c.BillingType
			return nil
		})
	}

	return g.Wait()
}
