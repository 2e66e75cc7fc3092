package marketplace

import "fmt"

// AuthError reports a credential or token failure against a marketplace
// API. It is absorbed at the per-marketplace boundary, never surfaced to
// the HTTP caller.
type AuthError struct {
	Market string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Market, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a network or parse failure for one marketplace page.
// Page is zero when the failure was not page-specific.
type FetchError struct {
	Market string
	Page   int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s: page %d: %v", e.Market, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Market, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
