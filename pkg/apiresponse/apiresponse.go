package apiresponse

// Response is the envelope every endpoint replies with.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

// New builds the envelope; Success is derived from the status code.
func New(statusCode int, data interface{}, message string) Response {
	if message == "" {
		if statusCode < 400 {
			message = "Success"
		} else {
			message = "Error"
		}
	}
	return Response{
		StatusCode: statusCode,
		Success:    statusCode < 400,
		Message:    message,
		Data:       data,
	}
}
