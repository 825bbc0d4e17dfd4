// Package rules turns declarative configuration into router
// registrations: routes that log what they resolved, and redirect
// proxies guarded by optional CEL conditions.
package rules
