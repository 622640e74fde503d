// Package telemetry provides observability for the Shinobi engine: structured
// logging with zerolog, Prometheus metrics, OpenTelemetry tracing, and a
// synthesis event recorder that bridges engine progress into all three.
package telemetry
