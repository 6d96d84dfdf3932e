package route

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crmarques/restresource/internal/cli/common"
	routetemplate "github.com/crmarques/restresource/route"
)

type expansion struct {
	Path  string `json:"path" yaml:"path"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	URL   string `json:"url" yaml:"url"`
}

func NewCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "route",
		Short: "Work with route templates offline",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}
	command.AddCommand(newExpandCommand(globalFlags))
	return command
}

func newExpandCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		params    []string
		actionURL string
	)

	command := &cobra.Command{
		Use:     "expand <template>",
		Short:   "Expand a route template with params",
		Example: `  restresource route expand '/api/volume/:id' -p id=7,owner=ana`,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			values, err := common.ParseParams(params)
			if err != nil {
				return err
			}

			template, err := routetemplate.Compile(args[0])
			if err != nil {
				return err
			}
			expanded, err := template.Expand(values, actionURL)
			if err != nil {
				return err
			}

			value := expansion{
				Path:  expanded.Path,
				Query: routetemplate.BuildQuery(expanded.Query),
				URL:   expanded.URL(),
			}
			return common.WriteOutput(command, globalFlags.Output, value, func(w io.Writer, item expansion) error {
				_, err := fmt.Fprintln(w, item.URL)
				return err
			})
		},
	}

	common.BindParamFlag(command, &params)
	command.Flags().StringVar(&actionURL, "action-url", "", "action url overriding the template")
	return command
}
