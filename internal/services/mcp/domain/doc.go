// Package domain maps MCP tool calls onto rules service calls.
//
// Each tool has an input type, an output type and a handler. Inputs and
// outputs carry jsonschema descriptions so MCP clients see documented
// schemas; handlers translate them to rules wire requests and back.
package domain
