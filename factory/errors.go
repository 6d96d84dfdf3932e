package factory

import "github.com/crmarques/restresource/faults"

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func badResponseShapeError(message string) error {
	return faults.NewTypedError(faults.BadResponseShape, message, nil)
}

func shapeName(isArray bool) string {
	if isArray {
		return "array"
	}
	return "object"
}
