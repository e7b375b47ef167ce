package gcp

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// OperationError is a failed zone operation, carrying the provider's typed
// error code (e.g. QUOTA_EXCEEDED) rather than formatted message text.
type OperationError struct {
	Code    string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed with code %s: %s", e.Code, e.Message)
}

// ErrorKind buckets a provider failure by what the scheduler should do
// about it.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota
	// KindQuota means the project lacks allocation for this resource in
	// this region. Never retryable for the candidate; move on.
	KindQuota
	// KindUnavailable means the zone is stocked out right now. Move on,
	// but the whole job is worth retrying later.
	KindUnavailable
	// KindTransient means an API hiccup unrelated to resource
	// availability. Retryable against the same candidate.
	KindTransient
	// KindFatal means the run cannot succeed regardless of candidate
	// (bad auth, malformed request, invalid image).
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindQuota:
		return "quota-exceeded"
	case KindUnavailable:
		return "resource-unavailable"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Operation error codes returned by Compute Engine zone operations.
var (
	quotaOperationCodes = map[string]bool{
		"QUOTA_EXCEEDED": true,
	}
	stockoutOperationCodes = map[string]bool{
		"ZONE_RESOURCE_POOL_EXHAUSTED":              true,
		"ZONE_RESOURCE_POOL_EXHAUSTED_WITH_DETAILS": true,
		"RESOURCE_POOL_EXHAUSTED":                   true,
		"RESOURCE_NOT_AVAILABLE":                    true,
	}
	transientOperationCodes = map[string]bool{
		"RATE_LIMIT_EXCEEDED": true,
		"INTERNAL_ERROR":      true,
	}
)

// API error reasons embedded in googleapi errors.
var (
	quotaReasons = map[string]bool{
		"quotaExceeded": true,
	}
	transientReasons = map[string]bool{
		"rateLimitExceeded":     true,
		"userRateLimitExceeded": true,
		"backendError":          true,
	}
)

// Classify maps a provider error onto the scheduler's retry taxonomy.
//
// Operation errors are classified by their typed code; API errors by HTTP
// status and reason. Anything unrecognized is treated as transient so a
// plain network failure gets its bounded retry rather than killing the run.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		switch {
		case quotaOperationCodes[opErr.Code]:
			return KindQuota
		case stockoutOperationCodes[opErr.Code]:
			return KindUnavailable
		case transientOperationCodes[opErr.Code]:
			return KindTransient
		default:
			return KindFatal
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if quotaReasons[item.Reason] {
				return KindQuota
			}
			if transientReasons[item.Reason] {
				return KindTransient
			}
		}
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return KindTransient
		case apiErr.Code >= http.StatusInternalServerError:
			return KindTransient
		case apiErr.Code == http.StatusUnauthorized,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusBadRequest,
			apiErr.Code == http.StatusNotFound:
			return KindFatal
		default:
			return KindFatal
		}
	}

	return KindTransient
}

// IsNotFound reports whether the error is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
