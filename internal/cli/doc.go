// Package cli implements the command-line interface for espn-tables.
//
// The cli package provides the Cobra-based CLI with one subcommand per ESPN
// page (teams, scoring, standings, draft, stats, transactions), row sorting,
// and output as text, JSON, CSV, Markdown or an xlsx workbook. It resolves
// settings through the config package and drives the espn package to fetch
// and reshape league tables.
package cli
