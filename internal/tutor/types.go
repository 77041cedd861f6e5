// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import "github.com/jeranaias/giasu-tui/internal/model"

// Endpoint paths served by the tutoring backend.
const (
	PathSendMessage  = "/send_message"
	PathUploadImage  = "/upload_image"
	PathClearHistory = "/clear_history"
	PathHealth       = "/health"
	PathSubjects     = "/subjects"
)

// Request is one chat turn sent to the backend.
type Request struct {
	Message      string             `json:"message"`
	Subject      string             `json:"subject"`
	Mode         model.Mode         `json:"mode"`
	SolutionMode model.SolutionMode `json:"solution_mode"`
}

// Response is the success body of /send_message and /upload_image.
type Response struct {
	Response string     `json:"response"`
	Subject  string     `json:"subject,omitempty"`
	Mode     model.Mode `json:"mode,omitempty"`

	// Set by /upload_image only.
	OriginalImage     string `json:"original_image,omitempty"`
	OptimizedImageB64 string `json:"optimized_image_b64,omitempty"`
}

// StatusResponse is the body of /clear_history and /health.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SubjectsResponse is the body of /subjects.
type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
	Modes    []string `json:"modes"`
}

// errorBody is the failure body the backend sends with non-2xx statuses.
type errorBody struct {
	Error string `json:"error"`
}
