/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

// Package esgapi provides typed access to the ESG dashboard backend.
// Every resource is fetched through gateway.Gateway with its own freshness lifetime,
// so repeated and concurrent reads of the same resource are served from one upstream request.
package esgapi
