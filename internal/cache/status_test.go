package cache

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Status
		to       Status
		expected bool
	}{
		{name: "uninitialized to loading", from: StatusUninitialized, to: StatusLoading, expected: true},
		{name: "loading to success", from: StatusLoading, to: StatusSuccess, expected: true},
		{name: "loading to error", from: StatusLoading, to: StatusError, expected: true},
		{name: "success to loading on refetch", from: StatusSuccess, to: StatusLoading, expected: true},
		{name: "error to loading on retry", from: StatusError, to: StatusLoading, expected: true},
		{name: "uninitialized to success invalid", from: StatusUninitialized, to: StatusSuccess, expected: false},
		{name: "success to error invalid", from: StatusSuccess, to: StatusError, expected: false},
		{name: "loading to loading invalid", from: StatusLoading, to: StatusLoading, expected: false},
		{name: "unknown status to loading invalid", from: Status("unknown"), to: StatusLoading, expected: false},
		{name: "any status to uninitialized on reset", from: StatusSuccess, to: StatusUninitialized, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
