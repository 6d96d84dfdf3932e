package common

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/crmarques/restresource/resource"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const (
	stdinFileIndicator = "-"
	maxInputBytes      = 4 << 20
)

// ReadOptionalPayload returns the decoded payload named by flags, or nil when
// no payload was given and stdin is not piped.
func ReadOptionalPayload(command *cobra.Command, flags InputFlags) (any, error) {
	data, err := readInput(command, flags)
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeInputData(data, flags.Format)
}

func DecodeInputData(data []byte, format string) (any, error) {
	switch format {
	case "", OutputJSON:
		decoded, err := resource.DecodeJSON(data)
		if err != nil {
			return nil, ValidationError("invalid json input", err)
		}
		return decoded, nil
	case OutputYAML:
		var decoded any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return nil, ValidationError("invalid yaml input", err)
		}
		normalized, err := resource.Normalize(decoded)
		if err != nil {
			return nil, ValidationError("invalid yaml input", err)
		}
		return normalized, nil
	default:
		return nil, ValidationError("invalid input format: use json or yaml", nil)
	}
}

func readInput(command *cobra.Command, flags InputFlags) ([]byte, error) {
	var reader io.Reader
	switch {
	case flags.Payload != "" && flags.Payload != stdinFileIndicator:
		file, err := os.Open(flags.Payload)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, NotFoundError("payload file not found", err)
			}
			return nil, err
		}
		defer file.Close()
		reader = file
	case flags.Payload == stdinFileIndicator || HasPipedInput(command):
		reader = command.InOrStdin()
	default:
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxInputBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputBytes {
		return nil, ValidationError("input exceeds maximum size", nil)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ValidationError("input is empty", nil)
	}
	return data, nil
}

