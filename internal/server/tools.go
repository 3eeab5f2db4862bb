package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the scanned page image",
	}
}

func pageIndexProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Index of the page within its batch, echoed in results (default: 0)",
		"default":     0,
	}
}

func rectProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer"},
			"y":      map[string]interface{}{"type": "integer"},
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

func pageSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":       pathProperty(),
			"page_index": pageIndexProperty(),
		},
		"required": []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pages
		{
			Name:        "omr_load_page",
			Description: "Load a scanned answer sheet and return its dimensions and format. The page is cached for later tools.",
			InputSchema: pageSchema(),
		},
		{
			Name:        "omr_crop_region",
			Description: "Crop a rectangle from a scanned page and return it as base64-encoded PNG. Use this to inspect a table or cell up close.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"region": rectProperty("Region to crop, in page pixels"),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor applied to the crop (default: 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"path", "region"},
			},
		},

		// Reading
		{
			Name:        "omr_detect_tables",
			Description: "Detect the answer tables on a page and measure every cell: bounds, ink density and, when OCR is available, header text. Falls back to the answer key's table boxes when nothing is found.",
			InputSchema: pageSchema(),
		},
		{
			Name:        "omr_read_sheet",
			Description: "Read the marked answers of a sheet, numbered across all its tables. The result is graded when an answer key is loaded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"page_index": pageIndexProperty(),
					"include_cells": map[string]interface{}{
						"type":        "boolean",
						"description": "Include every question's choices and cell measurements (default: false)",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_render_overlay",
			Description: "Read a sheet and return it as base64-encoded PNG with tables, cells and detected marks drawn on top. Use this to check what the reader saw.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"page_index": pageIndexProperty(),
					"show_cells": map[string]interface{}{
						"type":        "boolean",
						"description": "Outline every grid cell (default: true)",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_relative_region",
			Description: "Express a selection relative to a table's bounds as fractions in [0, 1]. The result can be used as an OCR or mark region override in the configuration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"table":     rectProperty("Table bounds in page pixels"),
					"selection": rectProperty("Selected region in page pixels"),
				},
				"required": []string{"table", "selection"},
			},
		},

		// Grading session
		{
			Name:        "omr_calibrate",
			Description: "Measure the ink density of a blank answer sheet. The value becomes the baseline subtracted from every cell of later sheets.",
			InputSchema: pageSchema(),
		},
		{
			Name:        "omr_load_answer_key",
			Description: "Read a filled-in answer key sheet and use it for grading. Its table boxes are kept as a fallback for sheets where detection fails.",
			InputSchema: pageSchema(),
		},
		{
			Name:        "omr_set_answer_key",
			Description: "Set the answer key directly from a map of question number to answer letter(s).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"answers": map[string]interface{}{
						"type":                 "object",
						"description":          "Question number (as a string) to expected answer, e.g. {\"1\": \"B\", \"2\": \"D\"}",
						"additionalProperties": map[string]interface{}{"type": "string"},
					},
					"source": map[string]interface{}{
						"type":        "string",
						"description": "Optional name recorded with the key",
					},
				},
				"required": []string{"answers"},
			},
		},
		{
			Name:        "omr_grade_sheets",
			Description: "Read and grade a batch of sheets against the loaded answer key. Pages are processed concurrently and reported in input order with a summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"description": "Absolute paths of the scanned sheets",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "omr_session",
			Description: "Report the grading session: calibrated baseline, answer key and reference table boxes. Optionally reset it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reset": map[string]interface{}{
						"type":        "boolean",
						"description": "Forget the baseline, answer key and cached pages (default: false)",
						"default":     false,
					},
				},
			},
		},

		// OCR
		{
			Name:        "omr_ocr_info",
			Description: "Report whether OCR is available and which backend, version and language it uses. Without OCR sheets are read by ink density alone.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
