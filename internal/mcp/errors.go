// Package mcp implements the Model Context Protocol server exposing the
// documentation search tools.
package mcp

import (
	"errors"
	"fmt"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeCorpusNotIndexed indicates no documentation has been indexed.
	ErrCodeCorpusNotIndexed = -32001

	// ErrCodeDownloadFailed indicates a documentation download failed.
	ErrCodeDownloadFailed = -32002

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol-level error with a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params protocol error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts an internal error to a protocol error. Used only when
// an error must cross the protocol boundary; tool handlers prefer
// rendering errors as text via errorText.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var de *uerrors.DocsError
	if errors.As(err, &de) {
		switch de.Category {
		case uerrors.CategoryValidation:
			return &MCPError{Code: ErrCodeInvalidParams, Message: de.Message}
		case uerrors.CategoryNetwork:
			return &MCPError{Code: ErrCodeDownloadFailed, Message: de.Message}
		case uerrors.CategoryIO:
			if de.Code == uerrors.ErrCodeCorruptIndex {
				return &MCPError{Code: ErrCodeCorpusNotIndexed, Message: de.Message}
			}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: de.Message}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}

// errorText renders an error as tool output text. Operational failures
// reach the client as readable text, never as protocol faults, so a
// failed search does not tear down the session.
func errorText(err error) string {
	var de *uerrors.DocsError
	if errors.As(err, &de) {
		if de.Suggestion != "" {
			return fmt.Sprintf("Error: %s. %s.", de.Message, de.Suggestion)
		}
		return fmt.Sprintf("Error: %s.", de.Message)
	}
	return fmt.Sprintf("Error: %s.", err.Error())
}
