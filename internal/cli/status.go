package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/runnerr0/nooze/internal/config"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalStatuses     int64             `json:"total_statuses"`
	TotalTopics       int64             `json:"total_topics"`
	TotalAuthors      int64             `json:"total_authors"`
	UnknownAuthors    int64             `json:"unknown_authors"`
	OldestStatus      string            `json:"oldest_status,omitempty"`
	NewestStatus      string            `json:"newest_status,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	TopAuthors        []authorCountJSON `json:"top_authors"`
	LastRead          map[string]string `json:"last_read"`
	ServerRunning     bool              `json:"server_running"`
}

type authorCountJSON struct {
	Author string `json:"author"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withRuntime(c.globals, func(rt *runtime) error {
		return c.executeWithStore(rt, checkServer(rt.cfg.Server))
	})
}

// executeWithStore reports on a prepared runtime (for testing).
func (c *StatusCommand) executeWithStore(rt *runtime, serverRunning bool) error {
	stats, err := rt.store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, err := rt.cfg.Storage.DBPath()
	if err != nil {
		return err
	}

	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		TotalStatuses:     stats.TotalStatuses,
		TotalTopics:       stats.TotalTopics,
		TotalAuthors:      stats.TotalAuthors,
		UnknownAuthors:    stats.UnknownAuthors,
		RetentionDays:     rt.cfg.Retention.Days,
		TopAuthors:        make([]authorCountJSON, len(stats.TopAuthors)),
		LastRead:          make(map[string]string, len(stats.LastRead)),
		ServerRunning:     serverRunning,
	}
	if stats.TotalStatuses > 0 {
		out.OldestStatus = stats.OldestStatus.UTC().Format(time.RFC3339)
		out.NewestStatus = stats.NewestStatus.UTC().Format(time.RFC3339)
	}
	for i, a := range stats.TopAuthors {
		out.TopAuthors[i] = authorCountJSON{Author: a.Author, Count: a.Count}
	}
	for src, t := range stats.LastRead {
		out.LastRead[src] = t.UTC().Format(time.RFC3339)
	}

	if wantJSON(c.globals) {
		return printJSON(out)
	}
	c.printHuman(out)
	return nil
}

func (c *StatusCommand) printHuman(s statusJSON) {
	fmt.Println("nooze status")
	fmt.Println("============")
	fmt.Printf("Version:       %s\n", s.Version)
	fmt.Printf("Database:      %s (%s)\n", s.DatabasePath, formatBytes(s.DatabaseSizeBytes))
	fmt.Printf("Statuses:      %s\n", formatNumber(s.TotalStatuses))
	fmt.Printf("Topics:        %s\n", formatNumber(s.TotalTopics))
	fmt.Printf("Authors:       %s (%s unknown language)\n", formatNumber(s.TotalAuthors), formatNumber(s.UnknownAuthors))

	if s.TotalStatuses > 0 {
		fmt.Printf("Oldest:        %s\n", s.OldestStatus)
		fmt.Printf("Newest:        %s\n", s.NewestStatus)
	}

	if s.RetentionDays > 0 {
		fmt.Printf("Retention:     %d days\n", s.RetentionDays)
	} else {
		fmt.Println("Retention:     forever")
	}

	if len(s.TopAuthors) > 0 {
		fmt.Println()
		fmt.Println("Top Authors:")
		for _, a := range s.TopAuthors {
			fmt.Printf("  %-24s %s\n", a.Author, formatNumber(a.Count))
		}
	}

	if len(s.LastRead) > 0 {
		sources := make([]string, 0, len(s.LastRead))
		for src := range s.LastRead {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		fmt.Println()
		fmt.Println("Feeds:")
		for _, src := range sources {
			fmt.Printf("  %-40s %s\n", src, s.LastRead[src])
		}
	}

	fmt.Println()
	if s.ServerRunning {
		fmt.Println("Server:        running")
	} else {
		fmt.Println("Server:        not running")
	}
}

// checkServer reports whether the JSON API answers on the configured address
// within one second.
func checkServer(cfg config.ServerConfig) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	resp, err := client.Get("http://" + addr + "/json/count")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
