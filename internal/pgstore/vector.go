package pgstore

import (
	"encoding/json"
	"fmt"
)

// vectorLiteral renders v in pgvector's text input format, which is a JSON
// array of numbers.
func vectorLiteral(v []float32) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseVector(s *string) ([]float32, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil, fmt.Errorf("parse vector: %w", err)
	}
	return v, nil
}
