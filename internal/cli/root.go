// Package cli implements nvmctl, a tool for inspecting and editing the
// objects of a file-backed persistent-memory pool.
package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"nvmenv/pkg/pmem"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Pool   string
	Format string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for nvmctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nvmctl",
		Short: "Inspect a persistent-memory pool",
		Long:  "List, read, rename and delete the objects of a file-backed persistent-memory pool.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Pool, "pool", "", "pool directory")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCatCommand(opts))
	cmd.AddCommand(NewStatCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewClassifyCommand(opts))

	return cmd
}

var errNoPool = errors.New("--pool is required")

// withPool opens the pool named by --pool for the duration of fn.
func withPool(opts *RootOptions, fn func(*pmem.Pool) error) (err error) {
	if opts.Pool == "" {
		return errNoPool
	}
	pool, err := pmem.OpenPool(opts.Pool)
	if err != nil {
		return fmt.Errorf("failed to open pool: %w", err)
	}
	defer func() {
		err = errors.Join(err, pool.Close())
	}()
	return fn(pool)
}
