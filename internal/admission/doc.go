/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

// Package admission provides a FIFO concurrency gate that bounds
// how many upstream operations run at the same time.
package admission
