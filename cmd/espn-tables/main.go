// Command espn-tables prints ESPN Fantasy Baseball league tables.
package main

import "github.com/pfrederiksen/espn-tables/internal/cli"

func main() {
	cli.Execute()
}
