// Package common holds the pieces shared by tool implementations: the Result
// type, argument decoding and the instrumentation wrapper.
package common
