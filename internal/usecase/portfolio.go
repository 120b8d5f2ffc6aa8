package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"BrandPulse/internal/domain/models"
	"BrandPulse/pkg/logger"
)

// PortfolioUseCase fans a decision run out over many brands with bounded
// concurrency. One brand failing never sinks the batch; its error is reported
// alongside the successful decisions.
type PortfolioUseCase struct {
	decide  *DecideUseCase
	log     *logger.Logger
	timeout time.Duration
}

func NewPortfolioUseCase(decide *DecideUseCase, log *logger.Logger) *PortfolioUseCase {
	return &PortfolioUseCase{decide: decide, log: log, timeout: 2 * time.Minute}
}

type PortfolioParams struct {
	Brands      []string
	PeriodDays  int
	Concurrency int
}

type PortfolioResult struct {
	Decisions []*models.Decision `json:"decisions"`
	Errors    map[string]string  `json:"errors"`
	Requested int                `json:"requested"`
	Succeeded int                `json:"succeeded"`
}

func (uc *PortfolioUseCase) Decide(ctx context.Context, p PortfolioParams) (*PortfolioResult, error) {
	if p.Concurrency <= 0 {
		p.Concurrency = 4
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &PortfolioResult{
		Decisions: []*models.Decision{},
		Errors:    map[string]string{},
		Requested: len(p.Brands),
	}

	sem := make(chan struct{}, p.Concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, brand := range p.Brands {
		brand := brand
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			d, err := uc.decide.Decide(ctx, DiagnoseParams{Brand: brand, PeriodDays: p.PeriodDays})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[brand] = err.Error()
				uc.log.Warn("portfolio brand failed", logger.String("brand", brand), logger.Error(err))
				return
			}
			res.Decisions = append(res.Decisions, d)
		}()
	}
	wg.Wait()

	sort.Slice(res.Decisions, func(i, j int) bool {
		return res.Decisions[i].Brand < res.Decisions[j].Brand
	})
	res.Succeeded = len(res.Decisions)
	return res, nil
}
