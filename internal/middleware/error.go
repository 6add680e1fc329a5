package middleware

import (
	"errors"
	"go-sessiond/internal/logger"
	"go-sessiond/internal/message"
	"net/http"
)

// AppError is an error a handler can return to choose the status code and
// message shown to the client.
type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error logs err and converts it into the response sent to the client.
// Anything that is not an AppError becomes a 500.
func Error(log logger.Logger, err error) *message.Response {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		if appErr.Code >= http.StatusInternalServerError {
			log.Error(err, appErr.Message)
		} else {
			log.Warn(appErr.Error())
		}
		return message.Text(appErr.Code, appErr.Message)
	}

	if errors.Is(err, ErrHeadersAlreadySent) {
		log.Error(err, "Session cookie could not be attached")
	} else {
		log.Error(err, "Request failed")
	}
	return message.Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
