package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
)

// All adapts the cursor to a range-over-func sequence.
// Iteration ends after the last item, or after yielding a non-nil error.
//
//	for item, err := range cursor.All(ctx) {
//		if err != nil {
//			return err
//		}
//		...
//	}
func (c *Cursor) All(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for {
			item, err := c.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains the cursor and returns every remaining item.
// On error the items gathered so far are returned alongside it.
func Collect(ctx context.Context, c *Cursor) ([]Item, error) {
	var items []Item
	for item, err := range c.All(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Decode unmarshals a single item into T.
func Decode[T any](item Item) (T, error) {
	var v T
	if err := json.Unmarshal(item, &v); err != nil {
		return v, fmt.Errorf("decode item: %w", err)
	}
	return v, nil
}

// Typed iterates the cursor decoding every item into T.
// A decode failure is yielded as an error and ends the iteration.
func Typed[T any](ctx context.Context, c *Cursor) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for item, err := range c.All(ctx) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			v, err := Decode[T](item)
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
