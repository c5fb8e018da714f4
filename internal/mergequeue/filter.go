package mergequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Filter excludes pull requests from the queue via a jq expression. The
// expression is evaluated against the JSON snapshot record of an entry and
// must return a single boolean, true admits the entry.
type Filter struct {
	query *gojq.Query
}

func NewFilter(jqQuery string) (*Filter, error) {
	query, err := gojq.Parse(jqQuery)
	if err != nil {
		return nil, fmt.Errorf("parsing jq query %q failed: %w", jqQuery, err)
	}

	return &Filter{query: query}, nil
}

func (f *Filter) String() string {
	return f.query.String()
}

// Admit evaluates the filter query for the snapshot record.
func (f *Filter) Admit(ctx context.Context, record *SnapshotRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshalling snapshot record failed: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("unmarshalling snapshot record failed: %w", err)
	}

	result, errs := goJQIterToSlice(f.query.RunWithContext(ctx, doc))
	if len(errs) != 0 {
		return false, fmt.Errorf("jq query returned errors, query: %q, errors: %s", f.query.String(), errString(errs))
	}

	if len(result) != 1 {
		return false, fmt.Errorf("jq query returned %d results, expected 1, query: %q", len(result), f.query.String())
	}

	val, ok := result[0].(bool)
	if !ok {
		return false, fmt.Errorf("jq query returned non-bool result: %+v (%T), query: %q", result[0], result[0], f.query.String())
	}

	return val, nil
}

func goJQIterToSlice(iter gojq.Iter) ([]any, []error) {
	var result []any
	var errors []error

	for {
		res, ok := iter.Next()
		if !ok {
			return result, errors
		}

		if err, isErr := res.(error); isErr {
			errors = append(errors, err)
			continue
		}

		result = append(result, res)
	}
}

func errString(errs []error) string {
	var result strings.Builder

	for i, err := range errs {
		if i > 0 {
			result.WriteString("; ")
		}

		result.WriteString(fmt.Sprintf("error %d: %s", i, err))
	}

	return result.String()
}
