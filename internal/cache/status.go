package cache

// Status is the lifecycle position of one cache entry.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusSuccess       Status = "success"
	StatusError         Status = "error"
)

// validTransitions contains the permitted transitions of an entry. Any status
// may return to uninitialized when the store is reset.
var validTransitions = map[Status][]Status{
	StatusUninitialized: {
		StatusLoading,
	},
	StatusLoading: {
		StatusSuccess,
		StatusError,
	},
	StatusSuccess: {
		StatusLoading,
	},
	StatusError: {
		StatusLoading,
	},
}

// IsTransitionAllowed reports whether an entry may move from one status to another.
func IsTransitionAllowed(from, to Status) bool {
	if to == StatusUninitialized {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == to {
			return true
		}
	}

	return false
}
