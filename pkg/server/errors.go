// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes a structured error response. The request ID is taken
// from the request context, or generated when absent.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code cmerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr maps err to a response. Structured errors keep their code,
// message and context; the underlying cause is reported as details.error.
// Any other error is reported as INTERNAL with fallbackMessage.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extraDetails map[string]any) {
	var se *cmerrors.StructuredError
	if errors.As(err, &se) {
		details := mergeDetails(se.Context, extraDetails)
		if se.Cause != nil {
			details = mergeDetails(details, map[string]any{"error": se.Cause.Error()})
		}
		status := HTTPStatusFromCode(se.Code)
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "code", se.Code, "error", err, "path", r.URL.Path)
		}
		WriteError(w, r, status, se.Code, se.Message, se.Code.Retryable(), details)
		return
	}

	slog.Error("request failed", "error", err, "path", r.URL.Path)
	details := mergeDetails(extraDetails, map[string]any{"error": errString(err)})
	WriteError(w, r, http.StatusInternalServerError, cmerrors.ErrCodeInternal, fallbackMessage, true, details)
}

// HTTPStatusFromCode maps an error code to its HTTP status.
func HTTPStatusFromCode(code cmerrors.ErrorCode) int {
	switch code {
	case cmerrors.ErrCodeInvalidRequest,
		cmerrors.ErrCodeMissingParameter,
		cmerrors.ErrCodeInvalidMatrixType,
		cmerrors.ErrCodeInvalidVersion,
		cmerrors.ErrCodeInvalidRange:
		return http.StatusBadRequest
	case cmerrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case cmerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case cmerrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case cmerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case cmerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case cmerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// mergeDetails returns a new map with b's keys overriding a's, or nil when
// both are empty.
func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
