package stt

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsDurationLimit reports whether a provider error signals the hard
// per-stream duration limit or a stream timeout. Such errors trigger a
// transparent restart; everything else is surfaced as a non-fatal
// session-level error.
func IsDurationLimit(err error) bool {
	if err == nil {
		return false
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.OutOfRange, codes.DeadlineExceeded:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "maximum allowed stream duration") ||
		strings.Contains(msg, "exceeded maximum") ||
		strings.Contains(msg, "stream duration") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out")
}
