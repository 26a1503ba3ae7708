package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db" description:"Override the database file (\":memory:\" for a scratch database)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// SearchCommand runs a shorthand query. Window options may be given as flags
// (`search -d 1 *Executive Jones`) or inline with --query.
type SearchCommand struct {
	Days  string `short:"d" long:"days" description:"Look back this many days"`
	Hours string `short:"H" long:"hours" description:"Look back this many hours"`
	Start string `short:"s" long:"start" description:"Window start date"`
	End   string `short:"e" long:"end" description:"Window end date"`
	Query string `short:"q" long:"query" description:"Full shorthand query, e.g. \"-d 1 *Executive Jones\""`
	Limit int    `long:"limit" description:"Maximum statuses per subquery (0 = config default)"`

	globals *GlobalFlags
	version string
}

// XSearchCommand runs a structured {words, start, end} search.
type XSearchCommand struct {
	Start string `long:"start" description:"Window start date (required)"`
	End   string `long:"end" description:"Window end date (required)"`

	globals *GlobalFlags
	version string
}

// CountCommand counts statuses in a window, or all statuses.
type CountCommand struct {
	Start string `long:"start" description:"Window start date"`
	End   string `long:"end" description:"Window end date"`

	globals *GlobalFlags
	version string
}

// CountsCommand counts one query over consecutive intervals.
type CountsCommand struct {
	Start    string `long:"start" description:"Start of the first interval (required)"`
	Interval string `long:"interval" description:"Interval width, e.g. 24h, 1d, 1w" default:"1d"`
	N        int    `short:"n" long:"n" description:"Number of intervals" default:"7"`

	globals *GlobalFlags
	version string
}

// GraphCommand charts several queries over consecutive intervals. Each
// positional argument is one subquery; words inside it are space separated.
type GraphCommand struct {
	Start    string `long:"start" description:"Start of the first interval (required)"`
	Interval string `long:"interval" description:"Interval width, e.g. 24h, 1d, 1w" default:"1d"`
	N        int    `short:"n" long:"n" description:"Number of intervals" default:"7"`
	Title    string `long:"title" description:"Chart title"`
	Out      string `long:"out" description:"Write the chart to this file instead of stdout"`

	globals *GlobalFlags
	version string
}

// TopicsCommand lists topics or loads a topics file.
type TopicsCommand struct {
	Load   string `long:"load" description:"Replace all topics with this file"`
	Reload bool   `long:"reload" description:"Replace all topics with the configured topics file"`

	globals *GlobalFlags
	version string
}

// AuthorsCommand lists authors or loads an authors file.
type AuthorsCommand struct {
	Load    string `long:"load" description:"Upsert authors from this file"`
	Reload  bool   `long:"reload" description:"Upsert authors from the configured authors file"`
	Unknown bool   `long:"unknown" description:"Only list authors whose language is unknown"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints one stored status.
type ShowCommand struct {
	ID     string `long:"id" description:"Status ID (required)"`
	Format string `long:"format" description:"Output format: full | text | json" default:"full"`

	globals *GlobalFlags
	version string
}

// AddCommand stores a status by hand.
type AddCommand struct {
	Author   string `long:"author" description:"Author (required)"`
	Text     string `long:"text" description:"Status text (or positional arguments)"`
	TextFile string `long:"text-file" description:"Read the status text from this file"`
	Date     string `long:"date" description:"Creation date (default now)"`
	Language string `long:"lang" description:"Language code (default: the author's, else U)"`
	Source   string `long:"source" description:"Source label" default:"manual"`

	globals *GlobalFlags
	version string
}

// IngestCommand reads the configured feeds.
type IngestCommand struct {
	Daemon   bool     `long:"daemon" description:"Keep reading every feeds.sleep_seconds until interrupted"`
	Interval int      `long:"interval" description:"Override the daemon pause in seconds"`
	Source   []string `long:"source" description:"Only read this feed (repeatable)"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes statuses older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d, 2w)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL nooze data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows database statistics and a config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ServeCommand runs the JSON API.
type ServeCommand struct {
	Host   string `long:"host" description:"Override server.host"`
	Port   int    `long:"port" description:"Override server.port"`
	Ingest bool   `long:"ingest" description:"Also run the feed ingester in the background"`

	globals *GlobalFlags
	version string
}
