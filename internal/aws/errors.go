package aws

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// IsAccessDenied reports whether err is an authorization failure from any
// AWS service.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case strings.HasPrefix(code, "AccessDenied"),
			code == "UnauthorizedOperation",
			code == "AuthorizationError",
			code == "AuthorizationErrorException",
			strings.Contains(code, "NotAuthorized"):
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "UnauthorizedOperation")
}

// hasErrorCode reports whether err is an API error with one of the given codes.
func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

// resultFor turns a listing outcome into a per-kind result. Authorization
// failures become the no-access sentinel; anything else keeps its text.
func resultFor(region string, kind inventory.Kind, records []inventory.Record, err error) inventory.Result {
	if err == nil {
		return inventory.OK(kind, records)
	}
	if IsAccessDenied(err) {
		slog.Warn("Access denied", "kind", kind, "region", region)
		return inventory.Denied(kind)
	}
	slog.Warn("Collector failed", "kind", kind, "region", region, "error", err)
	return inventory.Failed(kind, err.Error())
}
