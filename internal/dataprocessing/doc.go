// Package dataprocessing implements the post-analytics pipeline: it
// normalizes raw spreadsheet rows into typed post records, keeps them in a
// time-ordered record store, narrows the store through filter selections and
// computes the grouped statistics the dashboard renders.
//
// The pipeline is synchronous and allocation-cheap. Every aggregator is a pure
// function of its input slice: degenerate input (empty or single-record sets)
// always yields a well-defined empty or zero-filled result, never an error.
package dataprocessing
