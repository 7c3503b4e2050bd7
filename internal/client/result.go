package client

import (
	"errors"
)

const msgInternal = "Erro interno do servidor"

// Result is what every controller call returns: Data on success, otherwise at
// least one message ready to show to the user.
type Result[T any] struct {
	Success bool     `json:"success"`
	Data    T        `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func succeed[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// fail keeps the first server message, or uses fallback when the server sent none
// or could not be reached.
func fail[T any](err error, fallback string) Result[T] {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return Result[T]{Errors: apiErr.Messages[:1]}
	}
	return Result[T]{Errors: []string{fallback}}
}

// failAll keeps every server message, for forms that show one message per field.
func failAll[T any](err error) Result[T] {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return Result[T]{Errors: apiErr.Messages}
	}
	return Result[T]{Errors: []string{msgInternal}}
}

// invalid reports local validation errors. Joined errors become one message each.
func invalid[T any](err error) Result[T] {
	var msgs []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
	} else {
		msgs = []string{err.Error()}
	}
	return Result[T]{Errors: msgs}
}
