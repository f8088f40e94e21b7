// Package session houses implementations of core.SessionStore, the registry
// the Scanner uses to resolve handles to live scan sessions.
package session
