package httpclient

import "net/http"

// Status classification helpers. They are pure checks over the numeric code.

func IsInvalid(code int) bool       { return code < 100 || code >= 600 }
func IsInformational(code int) bool { return code >= 100 && code < 200 }
func IsOK(code int) bool            { return code >= 200 && code < 300 }
func IsRedirection(code int) bool   { return code >= 300 && code < 400 }
func IsClientError(code int) bool   { return code >= 400 && code < 500 }
func IsServerError(code int) bool   { return code >= 500 && code < 600 }
func IsForbidden(code int) bool     { return code == http.StatusForbidden }
func IsNotFound(code int) bool      { return code == http.StatusNotFound }

// IsEmpty reports codes whose responses are expected to carry no body.
func IsEmpty(code int) bool {
	switch code {
	case http.StatusCreated, http.StatusNoContent, http.StatusNotModified:
		return true
	default:
		return false
	}
}
