// Package access resolves a bearer token to a user and applies the guard
// chain: resolve, then require an active account, then require a role.
// Each step short-circuits, and none of them writes to storage.
package access
