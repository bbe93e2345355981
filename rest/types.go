/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import (
	"strconv"
	"strings"
)

// Item is a resource representation: field name to value.
// Implementations never retain or modify an Item passed to them.
type Item map[string]any

// ID names a resource instance. Canonical identifiers are int64 or non-empty string,
// see NormalizeID.
type ID any

// Options carries per-call switches. A nil Options is the empty default and is never written to.
type Options map[string]any

// Recognised option keys.
const (
	// OptionCount makes Fetch return only the number of matching resources.
	OptionCount = "__count"
	// OptionSoftDelete makes Delete stamp the soft-delete field instead of removing.
	OptionSoftDelete = "__soft_delete"
)

// Bool reports whether key is set to a truthy value.
// Accepts bool, "true"/"1"-like strings and non-zero numbers.
func (o Options) Bool(key string) bool {
	v, ok := o[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	default:
		return false
	}
}

// FetchResult is what Fetch returns. With OptionCount only Count is populated,
// otherwise Count equals len(Items).
type FetchResult struct {
	Items []Item
	Count int
}
