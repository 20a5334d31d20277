package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/engram"
	"github.com/lazypower/engram/internal/store"
)

// openCore opens the configured store and wires a Core without starting
// its background loops — CLI commands are one-shot and don't need the
// scheduled sweeper/janitor/batcher running.
func openCore() (*engram.Core, func(), error) {
	cfg := config.Default()
	if loaded, err := config.Load(os.Getenv("ENGRAM_CONFIG")); err == nil {
		cfg = loaded
	}
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := store.Open(dbPath, cfg.Database.MaxReaders, cfg.Database.BusyTimeoutMs)
	if err != nil {
		return nil, nil, err
	}
	core := engram.New(db, cfg, engram.Options{})
	return core, func() { db.Close() }, nil
}

var (
	createType      string
	createWorkspace string
	createTags      []string
)

var createCmd = &cobra.Command{
	Use:   "create [content]",
	Short: "Create a new memory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createType, "type", "t", "note", "Memory type")
	createCmd.Flags().StringVarP(&createWorkspace, "workspace", "w", "default", "Workspace")
	createCmd.Flags().StringSliceVar(&createTags, "tag", nil, "Tags (repeatable)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	core, closeFn, err := openCore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := core.Create(ctx, store.CreateParams{
		Content:    strings.Join(args, " "),
		MemoryType: createType,
		Workspace:  createWorkspace,
		Tags:       createTags,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Printf("created memory %d\n", m.ID)
	return nil
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Fetch a memory by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	core, closeFn, err := openCore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := core.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if m == nil {
		fmt.Println("not found")
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of results")
}

func runList(cmd *cobra.Command, args []string) error {
	core, closeFn, err := openCore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memories, err := core.List(ctx, store.ListParams{Limit: listLimit})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(memories) == 0 {
		fmt.Println("no memories found")
		return nil
	}
	for _, m := range memories {
		fmt.Printf("%d [%s] %s\n", m.ID, m.MemoryType, truncate(m.Content, 80))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show workspace memory statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	core, closeFn, err := openCore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := core.Stats(ctx, "")
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
