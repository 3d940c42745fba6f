// Package interceptors provides unary server interceptors for the rules
// service: caller identity from metadata and audit events per call.
package interceptors
