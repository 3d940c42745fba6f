// Package audit records operational audit events for the rules service.
package audit
