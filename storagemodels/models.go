/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "strings"

// Statement is one compiled backend statement.
type Statement struct {
	// Text is the statement with placeholders, or with literals inlined when rendered for display.
	Text string
	// Args holds placeholder values in order. Empty for inlined statements.
	Args []any
}

// Script is an ordered list of statements executed as one operation.
type Script []Statement

// String joins the statement texts, one per line, each terminated by a semicolon.
func (s Script) String() string {
	var b strings.Builder
	for i, st := range s {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.Text)
		b.WriteString(";")
	}
	return b.String()
}
