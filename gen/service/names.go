// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package service

import "strings"

// snakeIdentifier converts a PascalCase (or camelCase) identifier to the
// cross-language method identifier form: a '_' is inserted before every
// uppercase letter except the first, and every letter is lowercased.
// Unlike ordinary snake_case, runs of capitals are not treated as one word:
// "GetHTTPResponse" becomes "get_h_t_t_p_response", not "get_http_response".
// This is a deliberate compatibility rule, not a style choice — see
// DESIGN.md.
func snakeIdentifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lastComponent returns the final '.'-separated segment of a fully
// qualified name, e.g. "myapp.services.v1.LookupRequest" -> "LookupRequest".
func lastComponent(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
