package server

import (
	"context"
	"errors"
	"net/http"

	goahttp "goa.design/goa/v3/http"

	apperrors "meduhub/pkg/errors"
)

const msgInternal = "Something went wrong. Please try again later."

// envelope is the uniform response body
type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// createdRegistration is all a submitter gets back about their record
type createdRegistration struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// statusFor maps an error code to its HTTP status
func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) error {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	return enc.Encode(body)
}

// writeError renders err as a failure envelope. Internal errors always
// carry the message chosen by the service, never the cause.
func writeError(ctx context.Context, w http.ResponseWriter, err error) error {
	message := msgInternal
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	return writeJSON(ctx, w, statusFor(apperrors.CodeOf(err)), envelope{Success: false, Message: message})
}
