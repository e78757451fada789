package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrNoJSON is returned when a model answer holds no JSON value.
var ErrNoJSON = errors.New("could not find JSON in response")

// extractJSON cuts the outermost JSON object, or array when array is set,
// out of a model answer which might be wrapped in markdown or prose.
func extractJSON(text string, array bool) (string, error) {
	opener, closer := "{", "}"
	if array {
		opener, closer = "[", "]"
	}
	start := strings.Index(text, opener)
	if start == -1 {
		return "", ErrNoJSON
	}
	end := strings.LastIndex(text, closer)
	if end == -1 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// decodeAnswer unmarshals the JSON in a model answer into v. Slices and
// arrays are read from the first '[', everything else from the first '{'.
func decodeAnswer(text string, v any) error {
	clean, err := extractJSON(text, wantsArray(v))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON answer: %w. Raw response: %s", err, clean)
	}
	return nil
}

func wantsArray(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array)
}
