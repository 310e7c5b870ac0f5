package subquery

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape records which input form the parser matched.
type Shape int

const (
	// ShapeArray is a JSON array of query strings.
	ShapeArray Shape = iota
	// ShapeObject is a JSON object carrying the array under "queries_json".
	ShapeObject
	// ShapeNestedString is a JSON string that itself encodes a JSON array.
	ShapeNestedString
	// ShapeBareQuery is plain text treated as a single query. Last resort.
	ShapeBareQuery
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	case ShapeNestedString:
		return "nested_string"
	case ShapeBareQuery:
		return "bare_query"
	}
	return "unknown"
}

// ParsedQueries is the tagged parse result.
type ParsedQueries struct {
	Shape   Shape
	Queries []string
}

// Parse normalizes the sub-query list out of model output. The shapes are
// tried in a fixed precedence order: JSON array, object with "queries_json",
// JSON string encoding an array, then the whole input as one bare query.
// Blank entries are dropped; an input with no usable query is an error.
func Parse(input string) (ParsedQueries, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ParsedQueries{}, fmt.Errorf("empty sub-query input")
	}

	if queries, ok := parseArray(trimmed); ok {
		return tagged(ShapeArray, queries)
	}

	if inner, ok := parseObjectField(trimmed); ok {
		if queries, ok := parseArray(inner); ok {
			return tagged(ShapeObject, queries)
		}
	}

	if inner, ok := parseString(trimmed); ok {
		if queries, ok := parseArray(inner); ok {
			return tagged(ShapeNestedString, queries)
		}
	}

	return tagged(ShapeBareQuery, []string{trimmed})
}

func parseArray(input string) ([]string, bool) {
	var queries []string
	if err := json.Unmarshal([]byte(input), &queries); err != nil {
		return nil, false
	}
	return queries, true
}

func parseObjectField(input string) (string, bool) {
	var obj struct {
		QueriesJSON string `json:"queries_json"`
	}
	if err := json.Unmarshal([]byte(input), &obj); err != nil {
		return "", false
	}
	if obj.QueriesJSON == "" {
		return "", false
	}
	return obj.QueriesJSON, true
}

func parseString(input string) (string, bool) {
	var inner string
	if err := json.Unmarshal([]byte(input), &inner); err != nil {
		return "", false
	}
	return inner, true
}

func tagged(shape Shape, raw []string) (ParsedQueries, error) {
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return ParsedQueries{}, fmt.Errorf("no usable queries in %s input", shape)
	}
	return ParsedQueries{Shape: shape, Queries: queries}, nil
}
