/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

/*
Package gateway is the single chokepoint through which dashboard components fetch JSON resources
from the upstream ESG/financial API.

For every Get call the gateway, in this order:
  - serves the cached body if a backoff window (global or for the resource) is open;
  - serves the cached body if it is still fresh;
  - joins an identical request that is already in flight;
  - otherwise waits for an admission slot and calls the upstream, retrying only 429 responses.

A 429 response opens both backoff windows and, when anything is cached for the resource,
the cached body is served right away instead of retrying. When the upstream call fails,
a stale cached body is preferred over the error.

Usage:

	gw, err := gateway.New(gateway.NewDefaultConfig(), gateway.Opts{Logger: logger})
	if err != nil {
		return err
	}
	summary, err := gateway.GetJSON[DashboardSummary](ctx, gw, "/api/v1/dashboard", 15*time.Second)
*/
package gateway
