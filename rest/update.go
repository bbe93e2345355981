/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Updater patches one resource.
//
// Patches are applied in strict input order, each one seeing the result of the previous.
// A nil value removes the field. The resource as it stands after the last patch is returned.
// A missing resource yields errors.ErrNotFound.
type Updater interface {
	Update(ctx context.Context, id ID, patches []Item, opts Options) (Item, error)
}

// UpdateQuerier renders the statements an Updater would run, one per patch.
type UpdateQuerier interface {
	Update(id ID, patches []Item, opts Options) (string, error)
}
