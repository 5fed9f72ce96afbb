package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Key identifies one cached query result.
type Key struct {
	Endpoint string
	Args     string
}

func (k Key) String() string {
	if k.Args == "" {
		return k.Endpoint
	}
	return fmt.Sprintf("%s(%s)", k.Endpoint, k.Args)
}

// KeyFor serializes args to canonical JSON so equal arguments always map to
// the same entry. Nil and empty-object arguments produce an empty Args.
func KeyFor(endpoint string, args any) (Key, error) {
	if args == nil {
		return Key{Endpoint: endpoint}, nil
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return Key{}, fmt.Errorf("serialize %s arguments: %w", endpoint, err)
	}

	// Round-trip through a generic value so object keys come out sorted.
	var generic any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return Key{}, fmt.Errorf("serialize %s arguments: %w", endpoint, err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return Key{}, fmt.Errorf("serialize %s arguments: %w", endpoint, err)
	}

	switch string(canonical) {
	case "null", "{}":
		return Key{Endpoint: endpoint}, nil
	default:
		return Key{Endpoint: endpoint, Args: string(canonical)}, nil
	}
}
