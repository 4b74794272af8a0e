/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ethosview/dashgate/log"
)

// HomeCompanyID is the company shown on the home page.
const HomeCompanyID = 1

// WarmupCall is a single call made while warming the cache.
type WarmupCall struct {
	Name  string
	Fetch func(ctx context.Context) error
}

// WarmupResult is the outcome of a WarmupCall.
type WarmupResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Warmup runs the calls concurrently, starting call i after i*stagger.
// A failed call is logged and its error is stored in the result, other calls are not affected.
// Calls that have not started when ctx is done get ctx.Err().
// Results are returned in the order of calls.
func Warmup(ctx context.Context, calls []WarmupCall, stagger time.Duration, logger log.FieldLogger) []WarmupResult {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	results := make([]WarmupResult, len(calls))
	var g errgroup.Group
	for i := range calls {
		i := i
		results[i].Name = calls[i].Name
		g.Go(func() error {
			if err := waitCtx(ctx, time.Duration(i)*stagger); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			err := calls[i].Fetch(ctx)
			results[i].Duration = time.Since(start)
			if err != nil {
				results[i].Err = err
				logger.Warn("warm-up call failed",
					log.String("resource", calls[i].Name), log.DurationIn(results[i].Duration, time.Millisecond), log.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func waitCtx(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Warmup runs the calls with the configured stagger.
func (c *Client) Warmup(ctx context.Context, calls []WarmupCall) []WarmupResult {
	return Warmup(ctx, calls, c.stagger, c.logger)
}

func warmupCall[T any](r Resource, fn func(ctx context.Context) (T, error)) WarmupCall {
	return WarmupCall{Name: string(r), Fetch: func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	}}
}

// HomePage returns the calls made by the home page of the dashboard.
func (c *Client) HomePage() []WarmupCall {
	today := c.now()
	weekAgo := today.AddDate(0, 0, -7)
	return []WarmupCall{
		warmupCall(ResourceDashboard, c.Dashboard),
		warmupCall(ResourceAnalyticsSummary, c.AnalyticsSummary),
		warmupCall(ResourceMarketLatest, c.MarketLatest),
		warmupCall(ResourceMarketHistory, func(ctx context.Context) (MarketHistoryResponse, error) {
			return c.MarketHistory(ctx, weekAgo, today, 30)
		}),
		warmupCall(ResourceCorrelation, c.Correlation),
		warmupCall(ResourceTopPERatio, func(ctx context.Context) (TopPerformersResponse, error) {
			return c.TopPERatio(ctx, 24)
		}),
		warmupCall(ResourceAlerts, func(ctx context.Context) (AlertsResponse, error) {
			return c.Alerts(ctx, false)
		}),
		warmupCall(ResourceWSStatus, c.WSStatus),
		warmupCall(ResourceESGTrends, func(ctx context.Context) (ESGTrendsResponse, error) {
			return c.ESGTrends(ctx, HomeCompanyID, DefaultESGTrendsDays)
		}),
		warmupCall(ResourceAdvancedSummary, c.AdvancedSummary),
		warmupCall(ResourceFinancialIndicators, func(ctx context.Context) (FinancialIndicatorsResponse, error) {
			return c.FinancialIndicators(ctx, HomeCompanyID)
		}),
		warmupCall(ResourceLatestPrice, func(ctx context.Context) (LatestPriceResponse, error) {
			return c.LatestPrice(ctx, HomeCompanyID)
		}),
		warmupCall(ResourceESGScores, func(ctx context.Context) (ESGScoresListResponse, error) {
			return c.ESGScores(ctx, DefaultESGScoresLimit, 0, 0)
		}),
		warmupCall(ResourceCompanyFinancialSummary, func(ctx context.Context) (CompanyFinancialSummaryResponse, error) {
			return c.CompanyFinancialSummary(ctx, HomeCompanyID)
		}),
		warmupCall(ResourceStockPrices, func(ctx context.Context) (StockPricesResponse, error) {
			return c.StockPrices(ctx, HomeCompanyID, DefaultStockPricesLimit)
		}),
	}
}
