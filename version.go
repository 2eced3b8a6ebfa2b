// Package shimmer holds module-wide constants.
package shimmer

// Version is the canonical project version. All components share a
// single version (lockstep versioning). Note this is the release
// version of the software, not the protocol version carried in log
// header lines.
const Version = "0.3.0"
