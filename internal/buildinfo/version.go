/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package buildinfo reports the version of this module as seen from the running binary.
package buildinfo

import (
	"debug/buildinfo"
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const moduleName = "github.com/ethosview/dashgate"

// PrometheusVersionLabel is the const label attached to gateway metrics.
const PrometheusVersionLabel = "dashgate_version"

// AddPrometheusVersionLabel returns a copy of labels with the module version label added.
func AddPrometheusVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusVersionLabel] = Version()
	return labelsCopy
}

// UserAgent returns the default User-Agent for upstream requests.
func UserAgent() string {
	return "ethosview-dashgate/" + Version()
}

var version string
var versionOnce sync.Once

// Version returns the module version or "v0.0.0" when it can't be determined.
func Version() string {
	versionOnce.Do(initVersion)
	return version
}

func initVersion() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		version = extractVersion(bi, moduleName)
	}
	if version == "" {
		version = "v0.0.0"
	}
}

// extractVersion looks the module up among the main module and the dependencies.
// Major version suffixes ("/v2") are accepted.
func extractVersion(bi *buildinfo.BuildInfo, modName string) string {
	if bi == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modName) + `(/v[0-9]+)?$`)
	if re.MatchString(bi.Main.Path) && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
