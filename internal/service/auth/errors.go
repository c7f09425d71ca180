package auth

import "errors"

// Common authentication service errors. Access and refresh tokens get
// distinct sentinels so handlers can map them to different responses.
var (
	// ErrInvalidToken indicates the access token is malformed or its
	// signature does not match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the access token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token's nbf claim is in the
	// future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrWrongTokenType indicates a token of one type was presented
	// where the other was required, e.g. an access token sent to the
	// refresh endpoint.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidRefreshToken indicates the refresh token is malformed or
	// its signature does not match.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired and
	// the user must log in again.
	ErrExpiredRefreshToken = errors.New("refresh token has expired")
)
