// Package version holds the release version stamped into builds.
package version

// Current is the released version, without a "v" prefix.
const Current = "1.0.0"
