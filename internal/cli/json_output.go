// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Every command accepts --json and then writes exactly one JSONResponse
// document to stdout, except watch, which streams one compact document per
// line. Human-readable messages go to stderr in that mode.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/promptstamp/internal/diff"
	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteLine encodes the response to w as a single line.
func (r *JSONResponse) WriteLine(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// EmbedData is returned by the embed command.
type EmbedData struct {
	Input      string `json:"input"`
	Output     string `json:"output"`
	Software   string `json:"software"`
	BytesIn    int    `json:"bytes_in"`
	BytesOut   int    `json:"bytes_out"`
	Embedded   bool   `json:"embedded"`
	PromptSize int    `json:"prompt_bytes"`
}

// ExtractData is returned by the extract command.
type ExtractData struct {
	File   string         `json:"file"`
	Strict bool           `json:"strict"`
	Result pngmeta.Result `json:"result"`
}

// InspectData is returned by the inspect command.
type InspectData struct {
	File       string              `json:"file"`
	Size       int                 `json:"size"`
	Chunks     []pngmeta.ChunkInfo `json:"chunks"`
	TextChunks []pngmeta.TextChunk `json:"text_chunks"`
	Prompt     pngmeta.Result      `json:"prompt"`
	Error      string              `json:"error,omitempty"`
}

// DiffData is returned by the diff command.
type DiffData struct {
	Summary string       `json:"summary"`
	Report  *diff.Report `json:"report"`
	File    string       `json:"file,omitempty"`
	Format  string       `json:"format,omitempty"`
}

// WatchEventData is emitted once per file by the watch command in JSON mode.
type WatchEventData struct {
	Path   string         `json:"path"`
	Result pngmeta.Result `json:"result"`
	Error  string         `json:"error,omitempty"`
}

// ConfigData is returned by config show/get/path.
type ConfigData struct {
	Path   string      `json:"path,omitempty"`
	Exists bool        `json:"exists,omitempty"`
	Key    string      `json:"key,omitempty"`
	Value  interface{} `json:"value,omitempty"`
	Config interface{} `json:"config,omitempty"`
}
