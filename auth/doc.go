// Package auth provides the credential primitives: password hashing,
// the password policy, and signed access tokens.
package auth
