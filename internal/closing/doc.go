// Package closing computes the monthly financial closing of a household:
// credit card invoices grouped by billing cycle, attribution of allocations
// and expenses to cost centers, cent-exact reconciliation of member totals,
// and a yearly historical series.
//
// Every function is pure. Inputs are already-fetched records; outputs are
// value objects recomputed from scratch on each call. Malformed amounts count
// as zero and misconfigured cards are skipped, so none of these functions
// return errors.
package closing
