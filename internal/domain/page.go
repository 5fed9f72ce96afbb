package domain

import (
	"bytes"
	"encoding/json"
)

// Page is the single list envelope exposed for every list endpoint.
type Page[T any] struct {
	Items []T `json:"items" validate:"dive"`
	Total int `json:"total" validate:"gte=0"`
	Page  int `json:"page" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=0"`
}

// UnmarshalJSON accepts the {items,total,page,limit} envelope as well as a
// bare array, which is treated as one complete page.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items, Total: len(items), Page: 1, Limit: len(items)}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// pageEnvelope has Page's fields without its UnmarshalJSON method.
type pageEnvelope[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// TotalPages is the number of pages implied by Total and Limit.
func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		if p.Total > 0 {
			return 1
		}
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasNext reports whether another page exists after this one.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages()
}

// NextPage returns the page number to request next, or 0 when done.
func (p Page[T]) NextPage() int {
	if !p.HasNext() {
		return 0
	}
	return p.Page + 1
}
