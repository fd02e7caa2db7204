// Package tokencodec inspects bearer token payloads without verifying their
// signatures. It exists purely for client-side expiry and claims inspection;
// the remote API is the only authority on token validity.
//
// The codec never fails its caller on malformed input: Decode returns
// ErrMalformed, DecodeOrNil returns nil, IsExpired returns true and
// TimeRemaining returns zero for anything that is not a well-formed
// three-part JWT.
//
// # Units
//
// Expiry claims are seconds since the Unix epoch on the wire. This package
// converts them to time.Time and time.Duration at the boundary; no raw
// integer timestamp comparisons happen outside of it.
//
// # Usage
//
//	claims := tokencodec.DecodeOrNil(accessToken)
//	if claims != nil {
//		fmt.Println(claims.Subject, claims.ExpiresAt)
//	}
//
//	if tokencodec.IsExpired(accessToken) {
//		// attempt a refresh before using the token
//	}
package tokencodec
