// Package taskauth is the authentication and authorization core of the task
// tracker API: credential verification, signed access/refresh token issuance,
// per-request guarding, role checks, and security event recording.
//
// Tokens:
//   - Every token is an HS256 JWT carrying the user id, a role snapshot, and a
//     token class ("access" or "refresh"). Access tokens are short-lived and
//     presented on every protected request; refresh tokens are long-lived and
//     accepted only by Auther.Refresh. A token of one class is never accepted
//     where the other is required.
//   - The verifier is stateless: there is no server-side session record and no
//     revocation list, so a token stays valid until its own expiry. That is a
//     deliberate availability trade-off, not an oversight. If early
//     invalidation is ever needed, add a denylist keyed by token id with a TTL
//     matching the token expiry and consult it from the middleware.
//   - Renewal re-resolves the token subject against the identity store and
//     never rotates the refresh token. A subject that no longer resolves gets
//     the same generic credential rejection as a bad login, while an account
//     that resolves but is deactivated gets the distinct inactive error; the
//     two failures are deliberately not symmetrical.
//
// Security events:
//   - SecurityRecorder is a best-effort audit emitter used by Auther to
//     describe login, refresh, and authorization outcomes. Recorder errors are
//     logged and swallowed so auditing never becomes an availability
//     dependency for authentication itself.
//
// Repositories:
//   - Users and SecurityEvents are Bun repositories over the host's database.
//     The core only reads users during authentication; role and active-flag
//     mutations are admin-facing operations exposed for the host API.
package taskauth
