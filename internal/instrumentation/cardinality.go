package instrumentation

// Cardinality management helpers for metrics.
// Raw HTTP status codes and free-form error text are collapsed into a small
// fixed set of label values before they reach a metric.

// StatusClass maps an HTTP status code to its class ("2xx", "4xx", ...).
// A code of 0 means no response was received and maps to "none".
//
// Example:
//
//	StatusClass(201)  // "2xx"
//	StatusClass(429)  // "4xx"
//	StatusClass(0)    // "none"
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "none"
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return StatusUnknown
	}
}

// Twitter API operations.
const (
	OperationCreateTweet = "tweets.create"
)

// Reasons a post is rejected before reaching the API.
const (
	RejectReasonEmpty       = "empty"
	RejectReasonTooLong     = "too_long"
	RejectReasonCredentials = "missing_credentials"
)
