/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for tests: a scriptable fake upstream API
// and assertions for Prometheus collectors and error chains.
package testutil

type tHelper interface {
	Helper()
}
