package localstore

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// Record is anything stored in a collection under its own identity.
type Record interface {
	Identity() string
}

// GetAll decodes every record of a collection. The result is empty, not nil,
// when nothing was ever written.
func GetAll[T any](ctx context.Context, b Backend, c Collection) ([]T, error) {
	payloads, err := b.ReadAll(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(payloads))
	for _, p := range payloads {
		var item T
		if err := json.Unmarshal(p, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Save upserts item by its identity: insert when absent, full replace when
// present. Fields are never merged.
func Save[T Record](ctx context.Context, b Backend, c Collection, item T) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c, err)
	}
	return b.Put(ctx, c, item.Identity(), payload)
}

// SaveAll saves items one by one, stopping at the first failure.
func SaveAll[T Record](ctx context.Context, b Backend, c Collection, items []T) error {
	for _, item := range items {
		if err := Save(ctx, b, c, item); err != nil {
			return err
		}
	}
	return nil
}
