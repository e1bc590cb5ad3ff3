// Package access implements the session-establishment and access-control core
// of the document portal: completing sign-in from an identity-provider
// exchange code, advancing the two-stage email confirmation, resolving
// locale-prefixed redirects, answering role and permission questions, and
// enforcing the "keep me signed in" cookie policy at the edge.
//
// Exchange flow:
//   - ExchangeCoordinator completes sign-in from the callback request. A
//     recovery intent always routes to the recovery-completion destination and
//     never touches the profile store. Transient exchange failures (as
//     classified by the identity client, see ExchangeError) are retried with a
//     fixed delay; terminal failures and exhausted retries end in a login
//     redirect carrying the failure message. The coordinator never returns an
//     error to the transport, only a redirect.
//   - ConfirmationStateMachine advances a profile through the explicit
//     Unconfirmed -> FirstConfirmed -> FullyConfirmed progression. Transitions
//     are conditional single-row updates so a replayed callback is a no-op.
//
// Access control:
//   - AccessControlResolver reads Profile and PermissionGrant rows. A missing
//     profile resolves to the base user role, an inactive subadmin grant
//     nullifies every flag, and admins bypass grant lookups entirely.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the coordinator,
//     the confirmation machine, and the resolver. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking the sign-in path.
package access
