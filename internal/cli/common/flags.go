package common

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalFlags struct {
	Config       string
	Debug        bool
	Metrics      bool
	OTLPEndpoint string
	Output       string
}

type InputFlags struct {
	Payload string
	Format  string
}

func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	command.PersistentFlags().StringVarP(&flags.Config, "config", "c", "", "catalog file path")
	command.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "enable debug output")
	command.PersistentFlags().BoolVar(&flags.Metrics, "metrics", false, "print collected metrics to stderr on exit")
	command.PersistentFlags().StringVar(&flags.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for request traces")
	flags.Output = OutputAuto
	command.PersistentFlags().VarP((*outputFormatValue)(&flags.Output), "output", "o", "output format: auto|text|json|yaml")
}

var _ pflag.Value = (*outputFormatValue)(nil)

// outputFormatValue rejects unknown formats while flags are parsed.
type outputFormatValue string

func (v *outputFormatValue) Set(raw string) error {
	if err := ValidateOutputFormat(raw); err != nil {
		return err
	}
	*v = outputFormatValue(raw)
	return nil
}

func (v *outputFormatValue) String() string {
	return string(*v)
}

func (v *outputFormatValue) Type() string {
	return "format"
}

func BindInputFlags(command *cobra.Command, flags *InputFlags) {
	command.Flags().StringVarP(&flags.Payload, "payload", "f", "", "payload file path (use '-' to read from stdin)")
	command.Flags().StringVarP(&flags.Format, "format", "i", OutputJSON, "input format: json|yaml")
}

// BindParamFlag registers a repeatable --param flag taking key=value lists.
func BindParamFlag(command *cobra.Command, values *[]string) {
	command.Flags().StringArrayVarP(values, "param", "p", nil, "request params as key=value[,key=value] (repeatable)")
}
