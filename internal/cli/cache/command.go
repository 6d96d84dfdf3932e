package cache

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cachedomain "github.com/crmarques/restresource/cache"
	"github.com/crmarques/restresource/factory"
	"github.com/crmarques/restresource/internal/cli/common"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and evict cached snapshots",
		Long:  "Inspect and evict cached snapshots. Only the sqlite backend keeps entries between invocations.",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		newGetCommand(deps, globalFlags),
		newInvalidateCommand(deps, globalFlags),
		newClearCommand(deps, globalFlags),
	)
	return command
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var params []string

	command := &cobra.Command{
		Use:   "get <resource> [id]",
		Short: "Print a cached entity, or the cached collection when id is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, args []string) error {
			values, err := common.ParseParams(params)
			if err != nil {
				return err
			}

			return withResource(command, deps, globalFlags, args[0], func(target *factory.Resource) error {
				var id any
				if len(args) == 2 {
					id = args[1]
				}
				snapshot, found := target.Cache().Get(id, values)
				if !found {
					return common.NotFoundError(fmt.Sprintf("no cached entry for %s", describe(args)), nil)
				}
				return common.WriteOutput(command, globalFlags.Output, snapshot, nil)
			})
		},
	}
	common.BindParamFlag(command, &params)
	return command
}

func newInvalidateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var params []string

	command := &cobra.Command{
		Use:   "invalidate <resource> [id]",
		Short: "Drop one cached entry",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, args []string) error {
			values, err := common.ParseParams(params)
			if err != nil {
				return err
			}

			return withInvalidator(command, deps, globalFlags, args[0], func(invalidator cachedomain.Invalidator) error {
				var id any
				if len(args) == 2 {
					id = args[1]
				}
				invalidator.Invalidate(id, values)
				return common.WriteText(command, common.OutputText, fmt.Sprintf("invalidated %s", describe(args)))
			})
		},
	}
	common.BindParamFlag(command, &params)
	return command
}

func newClearCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <resource>",
		Short: "Drop every cached entry of a resource namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return withInvalidator(command, deps, globalFlags, args[0], func(invalidator cachedomain.Invalidator) error {
				invalidator.Clear()
				return common.WriteText(command, common.OutputText, fmt.Sprintf("cleared cache of %s", args[0]))
			})
		},
	}
}

func withResource(
	command *cobra.Command,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	name string,
	run func(*factory.Resource) error,
) error {
	ctx := command.Context()
	session, err := common.OpenSession(ctx, deps, globalFlags)
	if err != nil {
		return err
	}
	defer func() {
		_ = session.Close(context.WithoutCancel(ctx))
	}()

	target, err := session.Client.Resource(name)
	if err != nil {
		return err
	}
	return run(target)
}

func withInvalidator(
	command *cobra.Command,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	name string,
	run func(cachedomain.Invalidator) error,
) error {
	return withResource(command, deps, globalFlags, name, func(target *factory.Resource) error {
		invalidator, ok := target.Cache().(cachedomain.Invalidator)
		if !ok {
			return common.ValidationError(fmt.Sprintf("cache of resource %q does not support eviction", name), nil)
		}
		return run(invalidator)
	})
}

func describe(args []string) string {
	if len(args) == 2 {
		return fmt.Sprintf("%s/%s", args[0], args[1])
	}
	return fmt.Sprintf("%s collection", args[0])
}
