// Package sources supplies the rows appended by the sync trigger.
package sources

import "context"

// Source returns the rows to append for one sync run.
type Source interface {
	Rows(ctx context.Context) ([]map[string]any, error)
}

// Placeholder returns the fixed demo row.
type Placeholder struct{}

func (Placeholder) Rows(context.Context) ([]map[string]any, error) {
	return []map[string]any{{"field1": "value1", "field2": "value2"}}, nil
}
