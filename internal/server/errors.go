package server

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wastrilith2k/zep-mcp-server/internal/errortypes"
	"github.com/wastrilith2k/zep-mcp-server/internal/telemetry"
	"github.com/wastrilith2k/zep-mcp-server/internal/zep"
)

// errorResult converts a failed remote call into an error-flagged tool
// result. The process keeps serving; nothing escapes the handler
// boundary.
func (s *MemoryToolServer) errorResult(tool string, err error) *mcp.CallToolResult {
	logged := errortypes.APIError(err, fmt.Sprintf("%s failed", tool)).
		WithField("tool", tool)
	errortypes.LogError(nil, logged)
	s.metrics.IncrementCounter(telemetry.MetricZepCallsFailure, 1)

	return mcp.NewToolResultError(errorMessage(err))
}

// errorMessage extracts the remote error's message for the result text,
// with a serialized fallback when no message is available.
func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}

	var apiErr *zep.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}

	return err.Error()
}
