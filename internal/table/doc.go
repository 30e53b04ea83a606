// Package table extracts HTML tables into rectangular, immutable string tables.
//
// A Spec picks one table node in a page (by CSS selector and position) and says
// which row holds the column names. Extract reads that row as headers and every
// following row as data, padding short rows with empty cells and truncating long
// ones so that each row always has exactly one value per column.
package table
