// Package rules serves rules.v1.RulesService.
//
// Messages travel as google.protobuf.Struct values whose fields mirror the
// JSON tags of the request and response types in this package. Client
// wraps a connection with typed calls.
package rules
