/*
Package verifier implements core.Verifier.

HTTPVerifier asks the backend's verification endpoint whether a token is
valid:

	POST /auth/verify
	Authorization: Bearer <token>

	200 {"user_id": "...", "role": "PATIENT", ...}

Any 4xx answer, or a 2xx answer without a usable identity, is reported as a
rejection (core.ErrRejected). Transport errors, timeouts and 5xx answers are
reported as core.ErrUnavailable so that the resolver can tell "this token is
bad" apart from "nobody could check this token".

JWTVerifier checks HS256 tokens locally with the shared signing secret. It
reads the same user_id and role claims the verification endpoint reports and
is useful when the portal runs next to the backend and shares its secret.
*/
package verifier
