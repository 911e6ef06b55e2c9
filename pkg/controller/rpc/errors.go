package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/errutil"
)

// Code is an RPC error code
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus returns the status code answered with c
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is the body of a failed call
type Error struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

var errBadInput = errors.New("invalid input")

var notFoundErrors = []error{
	usecase.ErrItemNotFound,
	usecase.ErrAgentNotFound,
	usecase.ErrMeetingNotFound,
	usecase.ErrTranscriptNotFound,
	usecase.ErrSummaryNotFound,
	usecase.ErrUserNotFound,
}

var badRequestErrors = []error{
	errBadInput,
	usecase.ErrInvalidInput,
	usecase.ErrInvalidChatRequest,
}

// toError maps a use case error to its RPC form. Server side failures are
// logged and reported with a generic message.
func toError(ctx context.Context, path string, err error) *Error {
	newError := func(code Code, msg string) *Error {
		return &Error{Code: code, Message: msg, HTTPStatus: code.HTTPStatus(), Path: path}
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return newError(CodeNotFound, target.Error())
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return newError(CodeBadRequest, clientMessage(err, target))
		}
	}
	if errors.Is(err, usecase.ErrUnauthenticated) {
		return newError(CodeUnauthorized, "UNAUTHORIZED")
	}
	if errors.Is(err, usecase.ErrLLMNotConfigured) {
		errutil.Handle(ctx, err, "rpc procedure unavailable")
		return newError(CodeInternal, usecase.ErrLLMNotConfigured.Error())
	}

	errutil.Handle(ctx, goerr.Wrap(err, "rpc procedure failed", goerr.V("path", path)), "rpc procedure failed")
	return newError(CodeInternal, "Internal server error")
}

// clientMessage returns the message the sentinel was wrapped with, which is
// written for the caller. Deeper wrapping falls back to the sentinel text.
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	suffix := ": " + sentinel.Error()
	if strings.HasSuffix(msg, suffix) && !strings.Contains(strings.TrimSuffix(msg, suffix), ": ") {
		return strings.TrimSuffix(msg, suffix)
	}
	return sentinel.Error()
}
