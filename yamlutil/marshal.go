package yamlutil

import (
	"bytes"
	"errors"
	"io"

	"go.yaml.in/yaml/v3"
)

const defaultIndent = 2

// Marshal encodes v with two-space indentation.
func Marshal(v any) ([]byte, error) {
	return MarshalWithIndent(v, defaultIndent)
}

func MarshalWithIndent(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(v); err != nil {
		_ = encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeStrict decodes a single document into out, rejecting unknown fields.
// An empty document leaves out untouched.
func DecodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
