// Package session provides serialized, store-backed access to per-session
// traversal state.
package session
