// Package routing provides a URL-pattern router.
//
// Patterns are registered either as routes, terminal handlers that
// complete a resolution, or as proxies, interceptors that see every
// matching URL before its route and may pass it through or redirect it.
// Patterns support :name dynamic segments and a trailing /* wildcard:
//
//	r := routing.New()
//	_ = r.Proxy("app://*", func(path string, params routing.Parameters, next routing.Next) {
//		next("", nil) // pass through
//	})
//	_ = r.Map("app://items/:id", func(params routing.Parameters, done routing.Completion) {
//		show(params["id"])
//		done()
//	})
//	r.Open("app://items/42?ref=home")
//
// The most recently registered matching route wins. Resolutions run one
// at a time, in the order Open accepted them, and each waits for its
// proxies to call next and its route to call done. Handlers run on the
// executor chosen at registration, which defaults to a serial executor
// owned by the router.
//
// WithTags returns a view that registers tagged entries and opens URLs
// against the tagged subset of the table only.
package routing
