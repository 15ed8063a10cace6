// Package storefront is the e-commerce order intake adapter: a thin entry
// point over the sale engine that resolves the customer by email, fixes the
// operator to a system identity and the location to the configured store,
// then delegates to the same atomic create path every POS sale uses.
package storefront

import "errors"

var (
	// ErrDuplicateCheckout indicates the gateway reference was already
	// processed; the original order stands.
	ErrDuplicateCheckout = errors.New("storefront: checkout already processed")
	// ErrOrderNotFound indicates an unknown order reference.
	ErrOrderNotFound = errors.New("storefront: order not found")
)
