// Package pattern compiles URL patterns into anchored matchers.
//
// A pattern is literal text with zero or more dynamic segments and an
// optional trailing wildcard:
//
//	app://items/:id           captures "id" from one path segment
//	app://users/:user/:tab    captures "user" then "tab"
//	app://items/*             matches app://items and anything below it
//	/*                        matches every path
//
// A dynamic segment is a colon followed by one or more letters, digits,
// dashes or underscores, and matches a run of characters up to the next
// slash. Matching is case-insensitive.
//
// # Usage
//
//	m, err := pattern.Compile("app://items/:id")
//	if err != nil {
//	    return err
//	}
//	params, ok := m.Params("app://items/42") // {"id": "42"}, true
package pattern
