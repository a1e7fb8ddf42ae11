package model

// Envelope is the {message, data} wrapper the backend puts around most
// responses.
type Envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ErrorBody is the body of a non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
}
