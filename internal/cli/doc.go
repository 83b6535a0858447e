// Package cli implements the fqindex command line: flag binding,
// configuration resolution and dispatch of the create, update, query and
// summary jobs.
package cli
