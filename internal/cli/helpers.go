package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/config"
	logpkg "github.com/runnerr0/nooze/internal/logger"
	"github.com/runnerr0/nooze/internal/storage"
	searchuc "github.com/runnerr0/nooze/internal/usecase/search"
)

// runtime is what a command works with once global flags are applied.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.SQLiteStore
}

// openRuntime loads the config, builds the logger and opens the store.
func openRuntime(globals *GlobalFlags) (*runtime, error) {
	var flagPath string
	if globals != nil {
		flagPath = globals.Config
	}
	cfg, err := config.LoadOrCreate(flagPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals != nil && globals.DBPath != "" {
		if globals.DBPath == config.MemoryDB {
			cfg.Storage.Path = config.MemoryDB
		} else {
			cfg.Storage.Path, cfg.Storage.SQLiteFile = splitDBPath(globals.DBPath)
		}
	}

	level := cfg.Logging.Level
	if globals != nil && globals.Verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger(cfg.Logging.Env, level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, store: store}, nil
}

// Close releases the store and flushes the logger.
func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
	if r.logger != nil {
		_ = r.logger.Sync()
	}
}

// searchService builds the search service from the query config.
func (r *runtime) searchService() *searchuc.Service {
	q := r.cfg.Query
	return searchuc.New(r.store, r.logger).
		WithWindows(time.Duration(q.DefaultWindowHours)*time.Hour, time.Duration(q.RecentHours)*time.Hour).
		WithLimit(q.Limit)
}

func splitDBPath(p string) (dir, file string) {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return ".", p
	}
	return p[:i], p[i+1:]
}

// withRuntime opens the runtime, runs fn and closes it.
func withRuntime(globals *GlobalFlags, fn func(*runtime) error) error {
	rt, err := openRuntime(globals)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func wantJSON(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printStatuses writes statuses one per block, numbered.
func printStatuses(statuses []storage.Status) {
	for i, s := range statuses {
		fmt.Printf("%d. %s  %s [%s]\n", i+1, s.CreatedAt.UTC().Format("2006-01-02 15:04"), s.Author, s.Language)
		fmt.Printf("   %s\n", s.Text)
		if i < len(statuses)-1 {
			fmt.Println()
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%d %s", days, plural(days, "day", "days"))
	}
	hours := int(d.Hours())
	if hours > 0 {
		return fmt.Sprintf("%d %s", hours, plural(hours, "hour", "hours"))
	}
	return d.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
