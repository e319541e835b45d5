// Package client is the CLI side of the eventplanner auth API.
//
// HTTPClient implements Client over the versioned JSON API. Credentials live
// in a caller-owned Session that is passed to each authenticated call;
// expired access tokens are refreshed once transparently. The refresh cookie
// issued at login is held in a cookie jar.
//
// Transport failures wrap ErrUnavailable. Non-success envelopes surface as
// *APIError, which matches ErrUnauthorized or ErrRateLimited with errors.Is
// for 401 and 429.
package client
