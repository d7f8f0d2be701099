package cli

import (
	"github.com/spf13/cobra"

	"nvmenv/pkg/pmem"
	"nvmenv/pkg/route"
)

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// NewListCommand creates the ls command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List pool objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(opts, func(pool *pmem.Pool) error {
				var objects []ObjectView
				for _, name := range pool.Names() {
					info, err := pool.Stat(name)
					if err != nil {
						return err
					}
					objects = append(objects, viewOf(info))
				}
				return formatter(opts, cmd).Objects(objects)
			})
		},
	}
}

// NewCatCommand creates the cat command. Only committed bytes are written.
func NewCatCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "Write an object's committed bytes to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(opts, func(pool *pmem.Pool) error {
				data, info, err := pool.Open(args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data[:info.Committed])
				return err
			})
		},
	}
}

func NewStatCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <name>",
		Short: "Print one object's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(opts, func(pool *pmem.Pool) error {
				info, err := pool.Stat(args[0])
				if err != nil {
					return err
				}
				return formatter(opts, cmd).Object(viewOf(info))
			})
		},
	}
}

func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>...",
		Short: "Delete objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(opts, func(pool *pmem.Pool) error {
				for _, name := range args {
					if err := pool.Delete(name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func NewMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <old> <new>",
		Short: "Rename an object, replacing any object already called new",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(opts, func(pool *pmem.Pool) error {
				return pool.Rename(args[0], args[1])
			})
		},
	}
}

// NewClassifyCommand creates the classify command. It needs no pool.
func NewClassifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <name>...",
		Short: "Print the backend the default routing policy picks for each name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes := make([]RouteView, 0, len(args))
			for _, name := range args {
				routes = append(routes, RouteView{Name: name, Backend: route.Default.Classify(name).String()})
			}
			return formatter(opts, cmd).Routes(routes)
		},
	}
}
