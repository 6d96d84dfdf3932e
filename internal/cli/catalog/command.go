package catalog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/internal/cli/common"
	filecatalog "github.com/crmarques/restresource/internal/providers/config/file"
)

type resourceSummary struct {
	Name      string   `json:"name" yaml:"name"`
	URL       string   `json:"url" yaml:"url"`
	Namespace string   `json:"namespace" yaml:"namespace"`
	Actions   []string `json:"actions" yaml:"actions"`
}

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the resource catalog",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		newResourcesCommand(deps, globalFlags),
		newShowCommand(deps, globalFlags),
		newValidateCommand(deps, globalFlags),
	)
	return command
}

func newResourcesCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List catalog resources and their actions",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			loaded, err := common.LoadCatalog(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}

			summaries := summarize(loaded)
			return common.WriteOutput(command, globalFlags.Output, summaries, renderSummaries)
		},
	}
}

func newShowCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective catalog as yaml after environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			loaded, err := common.LoadCatalog(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}

			encoded, err := filecatalog.EncodeCatalog(loaded)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(command.OutOrStdout(), string(encoded))
			return err
		},
	}
}

func newValidateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the catalog",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			loaded, err := common.LoadCatalog(command.Context(), deps, globalFlags)
			if err != nil {
				return err
			}
			return common.WriteText(command, common.OutputText, fmt.Sprintf("catalog is valid: %d resources", len(loaded.Resources)))
		},
	}
}

func summarize(catalog config.Catalog) []resourceSummary {
	summaries := make([]resourceSummary, 0, len(catalog.Resources))
	for _, item := range catalog.Resources {
		effective := action.Defaults()
		for name := range item.Actions {
			effective[name] = action.Descriptor{}
		}
		actions := make([]string, 0, len(effective))
		for name := range effective {
			actions = append(actions, name)
		}
		sort.Strings(actions)

		summaries = append(summaries, resourceSummary{
			Name:      item.Name,
			URL:       item.URL,
			Namespace: item.Namespace(),
			Actions:   actions,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

func renderSummaries(w io.Writer, summaries []resourceSummary) error {
	writer := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(writer, "NAME\tURL\tNAMESPACE\tACTIONS")
	for _, item := range summaries {
		_, _ = fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", item.Name, item.URL, item.Namespace, strings.Join(item.Actions, ","))
	}
	return writer.Flush()
}
