package response

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorBody formats a failure for the plain-text error response.
func ErrorBody(err error) string {
	return "Error: " + err.Error()
}
