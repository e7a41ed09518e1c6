// Package aggregates declares the payment ledger boundary: the write operations
// that must run atomically, their inputs and results, and the error codes they
// fail with. Storage lives in internal/data/aggregates.
package aggregates

import "slices"

type WriteTxOwnership string

// WriteTxOwnedByAggregate means each write method opens and commits its own transaction.
const WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"

type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: reads only what a write decision needs.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries: listings and detail views go to table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Contract is the self-description every aggregate returns.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	// Operations are the span and metric names the aggregate reports under.
	Operations []string
	Notes      string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

func (c Contract) Reports(op string) bool {
	return slices.Contains(c.Operations, op)
}
