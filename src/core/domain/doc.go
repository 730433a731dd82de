// Package domain contains the core domain model for the budget tool.
//
// This package defines:
//   - Entities: accounts, transactions, categories, budgets and budget periods
//   - Value Objects: QueryResult, the tabular shape handed to the transport layer
//   - Domain Errors: sentinel errors and typed wrappers shared by every layer
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database, HTTP, etc.)
//   - Entities validate their own invariants
package domain
