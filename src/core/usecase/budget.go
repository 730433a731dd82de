package usecase

import (
	"context"
	"log/slog"

	"budgettool/src/core/domain"
	"budgettool/src/core/ports"
)

// BudgetService serves read-only listings of the budget tables.
type BudgetService struct {
	repo ports.BudgetRepository
	log  *slog.Logger
}

func NewBudgetService(repo ports.BudgetRepository, log *slog.Logger) *BudgetService {
	return &BudgetService{repo: repo, log: log}
}

// List returns every row of table.
func (s *BudgetService) List(ctx context.Context, table domain.Table) (*domain.QueryResult, error) {
	s.log.Info("fetching table", "table", string(table))

	res, err := s.repo.List(ctx, table)
	if err != nil {
		return nil, err
	}

	if res.Empty() {
		s.log.Warn("no rows found", "table", string(table))
	} else {
		s.log.Info("rows found", "table", string(table), "count", res.Len())
	}
	return res, nil
}
