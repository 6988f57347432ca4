// Package util provides small helpers shared across routerkit packages:
// pointer helpers for optional API fields and secret masking for log output.
package util
