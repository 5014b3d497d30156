// Package config holds the process configuration for calendaragent.
//
// Values are resolved once at startup in this order, later sources winning:
//   - built-in defaults (Default)
//   - an optional TOML file (LoadFile)
//   - environment variables (ApplyEnv)
//   - command line flags, applied by the cmd package
//
// The resulting Config is validated and passed by reference to the components
// that need it. There is no global configuration.
package config
