package common

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/yamlutil"
)

const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	switch format {
	case OutputAuto, OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
	}
}

// WriteOutput renders value in format. Text output falls back to renderText,
// or to indented json on a terminal and compact json otherwise when
// renderText is nil.
func WriteOutput[T any](command *cobra.Command, format string, value T, renderText func(io.Writer, T) error) error {
	if isNilOutputValue(value) {
		return nil
	}

	out := command.OutOrStdout()
	switch format {
	case OutputAuto, OutputText:
		if renderText != nil {
			return renderText(out, value)
		}
		return writeJSON(out, value, IsTerminalWriter(out))
	case OutputJSON:
		return writeJSON(out, value, true)
	case OutputYAML:
		plain, err := PlainValue(value)
		if err != nil {
			return err
		}
		encoded, err := yamlutil.Marshal(plain)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, string(encoded))
		return err
	default:
		return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
	}
}

func WriteText(command *cobra.Command, format string, text string) error {
	return WriteOutput(command, format, text, func(w io.Writer, value string) error {
		_, err := fmt.Fprintln(w, value)
		return err
	})
}

// PlainValue turns instances, collections and other json-marshalable values
// into plain maps, slices and scalars.
func PlainValue(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return resource.DecodeJSON(encoded)
}

func writeJSON(w io.Writer, value any, indent bool) error {
	var (
		encoded []byte
		err     error
	)
	if indent {
		encoded, err = json.MarshalIndent(value, "", "  ")
	} else {
		encoded, err = json.Marshal(value)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

func isNilOutputValue[T any](value T) bool {
	anyValue := any(value)
	if anyValue == nil {
		return true
	}

	reflected := reflect.ValueOf(anyValue)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflected.IsNil()
	default:
		return false
	}
}
