/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "sort"

// SortIDs orders canonical identifiers: integers ascending, then strings lexically.
func SortIDs(ids []ID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return lessID(ids[i], ids[j])
	})
}

// SortItems orders items by the identifier stored under idField.
func SortItems(items []Item, idField string) {
	sort.SliceStable(items, func(i, j int) bool {
		return lessID(items[i][idField], items[j][idField])
	})
}

func lessID(x, y any) bool {
	a, aInt := x.(int64)
	b, bInt := y.(int64)
	switch {
	case aInt && bInt:
		return a < b
	case aInt != bInt:
		return aInt
	default:
		as, _ := x.(string)
		bs, _ := y.(string)
		return as < bs
	}
}
