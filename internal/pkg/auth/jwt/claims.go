package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims carried by a Community Hub access token.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), required for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the numeric identifier of the account the token was issued to.
	UserID int32 `json:"userId"`

	// Role is the account's role ("admin" or "resident"), used to gate
	// administrative actions without a database round trip.
	Role string `json:"role"`
}
