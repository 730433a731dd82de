// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra. This keeps the core free of driver dependencies.
package ports

import (
	"context"

	"budgettool/src/core/domain"
)

// Repository is the base interface for all repositories.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// BudgetRepository reads budget tables.
type BudgetRepository interface {
	Repository

	// List returns every row of table. An empty table is not an error.
	List(ctx context.Context, table domain.Table) (*domain.QueryResult, error)
}

// ExternalService is a dependency whose reachability is reported by health checks.
type ExternalService interface {
	// Health checks if the external service is reachable.
	Health(ctx context.Context) error
}
