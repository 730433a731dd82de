package domain

// Row maps a column name to its value.
type Row map[string]any

// QueryResult is a tabular result: ordered column names plus ordered rows.
// Temporal values are already rendered as strings so the result can cross
// the serialization boundary unchanged.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Empty reports whether the result has no rows.
func (r *QueryResult) Empty() bool {
	return r.Len() == 0
}

// Records returns the rows in record orientation, never nil.
func (r *QueryResult) Records() []Row {
	if r == nil || r.Rows == nil {
		return []Row{}
	}
	return r.Rows
}

// Table names a relation exposed read-only over HTTP.
type Table string

const (
	TableAccounts      Table = "accounts"
	TableCategories    Table = "categories"
	TableTransactions  Table = "transactions"
	TableBudgets       Table = "budgets"
	TableBudgetPeriods Table = "budget_periods"
)

// Tables lists every readable table.
var Tables = []Table{TableAccounts, TableCategories, TableTransactions, TableBudgets, TableBudgetPeriods}

// Valid reports whether t is one of Tables.
func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

// Noun is the human-readable plural used in messages, e.g. "budget periods".
func (t Table) Noun() string {
	switch t {
	case TableBudgetPeriods:
		return "budget periods"
	default:
		return string(t)
	}
}
