// Package auth issues and verifies the bearer tokens that guard the
// inventory's mutating endpoints.
//
// Authentication is optional. When security.jwt.secret is empty the API
// stays open, which is how the bundled web frontend runs. When it is set,
// every POST and PUT needs an HS256 token signed with that secret, and the
// role inside the token decides what the caller may change:
//
//   - operator: check devices out and in
//   - admin: everything an operator can, plus create and edit devices and
//     register users
//
// Tokens are stateless. There is no refresh flow or revocation list;
// operators are issued short-lived tokens with `inventoryd token`.
package auth
