// Copyright (c) 2025 ClinicCare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/url"
	"strconv"
)

// QueryOption adds optional query parameters to list and search requests.
type QueryOption func(url.Values)

// WithLimit sets the maximum number of items returned. Non-positive values are ignored.
func WithLimit(n int) QueryOption {
	return func(v url.Values) {
		if n > 0 {
			v.Set("limit", strconv.Itoa(n))
		}
	}
}

// WithPageSize is WithLimit under the name paging callers expect.
func WithPageSize(n int) QueryOption { return WithLimit(n) }

// WithSkip sets the number of items to skip. Non-positive values are ignored.
func WithSkip(n int) QueryOption {
	return func(v url.Values) {
		if n > 0 {
			v.Set("skip", strconv.Itoa(n))
		}
	}
}

func applyQuery(v url.Values, opts []QueryOption) url.Values {
	if v == nil {
		v = url.Values{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}
