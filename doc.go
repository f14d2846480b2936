// Package membership implements the authentication and session core of the
// membership platform backend: JWT issuance and validation, fingerprinted
// session tracking, registration, invitation tokens, and the supporting
// workers (invitation cleanup, queued mail delivery).
//
// Sessions:
//   - Every successful login records a Session row keyed by the client
//     fingerprint (user id + IP + user agent). A new login from the same
//     fingerprint evicts the previous row, so a user holds at most one live
//     session per client but may stay signed in from several devices.
//   - Session persistence is best-effort. A failed write is logged and the
//     login still succeeds with a valid token.
//
// Invitation tokens:
//   - Invitations are signed claim sets for identities that do not exist yet.
//     The role-conditional payload (node_type for node leaders, node_id for
//     members) is modeled as a tagged variant, see InvitationRole.
package membership
