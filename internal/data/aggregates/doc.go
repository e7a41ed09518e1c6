// Package aggregates implements the payment ledger on gorm. Each write runs in
// one transaction through TxRunner and reports to Hooks under the operation
// names of the ledger contract.
package aggregates
