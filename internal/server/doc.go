// Package server implements the MCP (Model Context Protocol) server for
// optical mark recognition of multiple-choice answer sheets.
//
// This package provides a JSON-RPC 2.0 server that exposes the OMR pipeline
// through the MCP protocol, so an assistant can read, inspect and grade
// scanned sheets.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Pages:
//   - omr_load_page: Load a scan and get metadata
//   - omr_crop_region: Extract a rectangle as PNG
//
// Reading:
//   - omr_detect_tables: Find tables and measure their cells
//   - omr_read_sheet: Read (and grade) the marked answers
//   - omr_render_overlay: Draw tables, cells and marks over the page
//   - omr_relative_region: Turn a selection into a table-relative region
//
// Grading session:
//   - omr_calibrate: Measure a blank sheet's baseline
//   - omr_load_answer_key: Read the key from a filled-in sheet
//   - omr_set_answer_key: Set the key from a map
//   - omr_grade_sheets: Grade a batch of sheets concurrently
//   - omr_session: Inspect or reset the session
//
// OCR:
//   - omr_ocr_info: Report the OCR backend
//
// # Session State
//
// The baseline and answer key set by the session tools apply to every later
// call until they are replaced or reset. The answer key's table boxes are
// used as search regions for sheets on which no table is found. Loaded pages
// are cached by path for the lifetime of the session.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	proc := pipeline.NewProcessor(rec, cfg.PipelineOptions(), log)
//	srv := server.New(proc, rec, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
