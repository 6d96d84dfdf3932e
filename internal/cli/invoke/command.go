package invoke

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/debugctx"
	"github.com/crmarques/restresource/internal/cli/common"
	"github.com/crmarques/restresource/internal/telemetry"
	"github.com/crmarques/restresource/resource"
)

const defaultWait = 30 * time.Second

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		params []string
		input  common.InputFlags
		wait   time.Duration
		ids    []string
	)

	command := &cobra.Command{
		Use:   "invoke <resource> <action>",
		Short: "Invoke a resource action and print the settled result",
		Example: `  restresource invoke volume get -p id=7
  restresource invoke volume get --id 7 --id 8
  restresource invoke volume query -p owner=ana
  restresource invoke volume save -f volume.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			resourceName, actionName := args[0], args[1]

			callParams, err := common.ParseParams(params)
			if err != nil {
				return err
			}
			payload, err := common.ReadOptionalPayload(command, input)
			if err != nil {
				return err
			}
			if wait <= 0 {
				return common.ValidationError("--wait must be positive", nil)
			}

			ctx := command.Context()
			session, err := common.OpenSession(ctx, deps, globalFlags)
			if err != nil {
				return err
			}
			defer func() {
				_ = session.Close(context.WithoutCancel(ctx))
			}()

			target, err := session.Client.Resource(resourceName)
			if err != nil {
				return err
			}
			descriptor, found := target.Action(actionName)
			if !found {
				return common.ValidationError(fmt.Sprintf("resource %q has no action %q", resourceName, actionName), nil)
			}
			if payload != nil && !descriptor.HasBody() {
				return common.ValidationError(fmt.Sprintf("action %q does not accept a payload", actionName), nil)
			}

			calls := fanOut(callParams, ids)
			debugctx.Printf(ctx, "invoke resource=%q action=%q method=%s params=%d payload=%t calls=%d",
				resourceName, actionName, descriptor.NormalizedMethod(), len(callParams), payload != nil, len(calls))

			waitCtx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()

			promises := make([]*resource.Promise, 0, len(calls))
			for _, params := range calls {
				result, err := target.Invoke(waitCtx, actionName, action.Call{Params: params, Data: payload})
				if err != nil {
					cancel()
					drain(promises)
					return err
				}
				promises = append(promises, result.Promise())
			}

			values, err := resource.WaitAll(waitCtx, promises...)
			if err != nil {
				// Pending round trips observe the cancelled context; let them
				// finish before the session closes the cache.
				cancel()
				drain(promises)
			}

			if globalFlags.Metrics {
				_ = telemetry.WriteSummary(command.ErrOrStderr(), session.Registry)
			}
			if err != nil {
				return err
			}

			var output any = values
			if len(ids) == 0 {
				output = values[0]
			}
			plain, err := common.PlainValue(output)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, plain, nil)
		},
	}

	common.BindParamFlag(command, &params)
	common.BindInputFlags(command, &input)
	command.Flags().DurationVar(&wait, "wait", defaultWait, "maximum time to wait for the response")
	command.Flags().StringArrayVar(&ids, "id", nil, "invoke once per id and print the results as a list (repeatable)")
	return command
}

// fanOut returns one parameter set per id, or the base set alone.
func fanOut(base map[string]any, ids []string) []map[string]any {
	if len(ids) == 0 {
		return []map[string]any{base}
	}
	calls := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		params := make(map[string]any, len(base)+1)
		for key, value := range base {
			params[key] = value
		}
		params["id"] = id
		calls = append(calls, params)
	}
	return calls
}

func drain(promises []*resource.Promise) {
	for _, promise := range promises {
		_, _ = promise.Wait(context.Background())
	}
}
