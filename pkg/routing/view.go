package routing

import (
	"net/url"
	"slices"
)

// View is a tag-restricted window onto a Router. Registrations made
// through a view carry its tags; URLs opened through it only see
// registrations intersecting the tags of every WithTags level. Views
// share the router's table and routing queue.
type View struct {
	router *Router
	tags   []string
	source *tableView
}

func newView(r *Router, parent *View, tags []string) *View {
	v := &View{router: r}

	var filters []tagSet
	if parent != nil {
		v.tags = slices.Clone(parent.tags)
		filters = slices.Clone(parent.source.filters)
	}
	v.tags = append(v.tags, tags...)
	filters = append(filters, newTagSet(tags))
	v.source = r.table.filteredByTags(filters...)

	return v
}

// Tags returns the tags added to registrations made through the view.
func (v *View) Tags() []string {
	return newTagSet(v.tags).sorted()
}

// Map registers a route carrying the view's tags.
func (v *View) Map(pattern string, handler RouteHandler, opts ...RegisterOption) error {
	if handler == nil {
		return v.router.Map(pattern, nil)
	}
	return v.router.register(KindRoute, pattern, handler, nil, v.tags, opts)
}

// Proxy registers a proxy carrying the view's tags.
func (v *View) Proxy(pattern string, handler ProxyHandler, opts ...RegisterOption) error {
	if handler == nil {
		return v.router.Proxy(pattern, nil)
	}
	return v.router.register(KindProxy, pattern, nil, handler, v.tags, opts)
}

// Open is Router.Open restricted to the view.
func (v *View) Open(raw string) bool {
	return v.router.open(raw, v.source)
}

// OpenURL is Router.OpenURL restricted to the view.
func (v *View) OpenURL(u *url.URL) bool {
	if u == nil {
		return v.router.OpenURL(nil)
	}
	return v.Open(u.String())
}

// WithTags narrows the view further.
func (v *View) WithTags(tags ...string) *View {
	return newView(v.router, v, tags)
}

// Registrations returns the registrations visible through the view, in
// table order.
func (v *View) Registrations() []*Registration {
	return v.source.snapshot()
}
