package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Search  *SearchCommand
	XSearch *XSearchCommand
	Count   *CountCommand
	Counts  *CountsCommand
	Graph   *GraphCommand
	Topics  *TopicsCommand
	Authors *AuthorsCommand
	Show    *ShowCommand
	Add     *AddCommand
	Ingest  *IngestCommand
	Prune   *PruneCommand
	Purge   *PurgeCommand
	Status  *StatusCommand
	Serve   *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "nooze"
	parser.LongDescription = "Collect news feed statuses and query them by topic, window and interval."

	cmds := &commands{
		Search:  &SearchCommand{globals: &globals, version: version},
		XSearch: &XSearchCommand{globals: &globals, version: version},
		Count:   &CountCommand{globals: &globals, version: version},
		Counts:  &CountsCommand{globals: &globals, version: version},
		Graph:   &GraphCommand{globals: &globals, version: version},
		Topics:  &TopicsCommand{globals: &globals, version: version},
		Authors: &AuthorsCommand{globals: &globals, version: version},
		Show:    &ShowCommand{globals: &globals, version: version},
		Add:     &AddCommand{globals: &globals, version: version},
		Ingest:  &IngestCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Purge:   &PurgeCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("search", "Run a shorthand query", "Run a shorthand query such as `search -d 1 *Executive *Judicial Jones`. Each *topic and the remaining words run as separate subqueries.", cmds.Search)
	parser.AddCommand("xsearch", "Run a structured search", "Search statuses in [--start, --end) matching every word given; *slug words expand to topic queries.", cmds.XSearch)
	parser.AddCommand("count", "Count statuses", "Count statuses matching the words in [--start, --end), or all statuses when no window is given.", cmds.Count)
	parser.AddCommand("counts", "Count a query per interval", "Count statuses matching the words in each of --n consecutive intervals.", cmds.Counts)
	parser.AddCommand("graph", "Chart queries per interval", "Produce a Vega-Lite bar chart of each subquery's counts over consecutive intervals.", cmds.Graph)
	parser.AddCommand("topics", "List or load topics", "List topics grouped by category, or replace them from a slug:description:category:query file.", cmds.Topics)
	parser.AddCommand("authors", "List or load authors", "List authors and their languages, or upsert them from an author:language file.", cmds.Authors)
	parser.AddCommand("show", "Print a stored status", "Print the full stored content of a specific status.", cmds.Show)
	parser.AddCommand("add", "Store a status by hand", "Store a status by hand.", cmds.Add)
	parser.AddCommand("ingest", "Read the configured feeds", "Read every configured feed once, or repeatedly with --daemon.", cmds.Ingest)
	parser.AddCommand("prune", "Apply retention pruning", "Delete statuses older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL nooze data", "Delete ALL nooze data. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("status", "Show database statistics", "Show database statistics, feed watermarks and configuration summary.", cmds.Status)
	parser.AddCommand("serve", "Run the JSON API", "Serve the JSON API until interrupted.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the nooze CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("nooze %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
