package validation

import (
	"fmt"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 20
)

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if strings.ContainsAny(id, " /") {
		return fmt.Errorf("document ID must not contain spaces or slashes, got %q", id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateDocumentKind(kind string) error {
	validKinds := map[string]bool{
		"all":         true,
		"invoice":     true,
		"order":       true,
		"credit_note": true,
	}
	if !validKinds[kind] {
		return fmt.Errorf("invalid document kind: %s (must be one of: all, invoice, order, credit_note)", kind)
	}
	return nil
}

func ValidateHTTPMethod(method string) error {
	validMethods := map[string]bool{
		"GET":    true,
		"POST":   true,
		"PUT":    true,
		"PATCH":  true,
		"DELETE": true,
	}
	if !validMethods[strings.ToUpper(method)] {
		return fmt.Errorf("invalid HTTP method: %s (must be one of: GET, POST, PUT, PATCH, DELETE)", method)
	}
	return nil
}
