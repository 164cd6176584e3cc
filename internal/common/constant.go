package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// ResetTokenBytes is the number of random bytes in a password reset token
// before hex encoding.
const ResetTokenBytes = 20
