package common

const (
	// RefreshTokenCookieName is the cookie carrying the raw refresh token.
	RefreshTokenCookieName = "refresh_token"

	// AuthorizationHeaderName carries "Bearer <access token>" on protected requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the authorization scheme prefix.
	BearerScheme = "Bearer"

	// APIPrefix is the version prefix of every HTTP route.
	APIPrefix = "/api/v1"
)
