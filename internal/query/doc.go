// Package query matches a sample manifest against the index.
//
// For each manifest sample the effective pattern list is the base library
// patterns (regular expressions matched anywhere in the path) plus one
// literal pattern per flow cell listed for that sample. A library matches
// only when it satisfies every pattern. Samples with at least one matching
// library go to querySucc.log; samples with libraries but no match, and
// samples missing from the index, go to queryFail.log.
//
// Queries read one snapshot of the index and never modify it.
package query
