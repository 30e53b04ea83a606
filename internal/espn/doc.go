// Package espn reads ESPN Fantasy Baseball league pages into tables.
//
// A League builds the page URL for each supported view (standings, draft recap,
// active stats, recent activity), fetches it through a fetch.Fetcher and
// extracts the relevant HTML tables with package table. A Team offers the same
// accessors scoped to one team of the league. ESPN-specific cells such as
// "Mike Trout, LAA OF" are split into separate PLAYER, TEAM and POS columns.
package espn
