package dto

// Envelope is the uniform response body of the API.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds an error envelope. data may carry structured details such as violations.
func Fail(err string, message string, data any) Envelope {
	return Envelope{Success: false, Error: err, Message: message, Data: data}
}
