package api

// Envelope is the wire shape of every response: {success, data} on the happy
// path, {success, error:{code, message}} otherwise.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code" example:"ACCOUNT_NOT_FOUND"`
	Message string `json:"message" example:"account not found"`
}

func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(code, message string) Envelope {
	return Envelope{Success: false, Error: &Error{Code: code, Message: message}}
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
