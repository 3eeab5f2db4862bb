package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
	"github.com/ironsheep/omr-tools-mcp/internal/grading"
	"github.com/ironsheep/omr-tools-mcp/internal/imaging"
	"github.com/ironsheep/omr-tools-mcp/internal/ocr"
	"github.com/ironsheep/omr-tools-mcp/internal/pipeline"
	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// ErrNoAnswerKey is returned by grading tools before a key was set.
var ErrNoAnswerKey = errors.New("no answer key loaded")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_read_sheet").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Loads pages from the cache
//  3. Runs the pipeline against the session's reference and answer key
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Pages
	case "omr_load_page":
		return s.handleLoadPage(args)
	case "omr_crop_region":
		return s.handleCropRegion(args)

	// Reading
	case "omr_detect_tables":
		return s.handleDetectTables(ctx, args)
	case "omr_read_sheet":
		return s.handleReadSheet(ctx, args)
	case "omr_render_overlay":
		return s.handleRenderOverlay(ctx, args)
	case "omr_relative_region":
		return s.handleRelativeRegion(args)

	// Grading session
	case "omr_calibrate":
		return s.handleCalibrate(ctx, args)
	case "omr_load_answer_key":
		return s.handleLoadAnswerKey(ctx, args)
	case "omr_set_answer_key":
		return s.handleSetAnswerKey(args)
	case "omr_grade_sheets":
		return s.handleGradeSheets(ctx, args)
	case "omr_session":
		return s.handleSession(args)

	// OCR
	case "omr_ocr_info":
		return s.handleOCRInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadPage reads a scan through the cache.
func (s *Server) loadPage(path string, index int) (pipeline.Page, error) {
	if path == "" {
		return pipeline.Page{}, errors.New("path is required")
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return pipeline.Page{}, err
	}
	return pipeline.Page{Source: path, Index: index, Image: img}, nil
}

// === Page Handlers ===

type pageArgs struct {
	Path      string `json:"path"`
	PageIndex int    `json:"page_index"`
}

func (s *Server) handleLoadPage(args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadPageInfo(s.cache, a.Path)
}

type cropRegionArgs struct {
	Path   string        `json:"path"`
	Region geometry.Rect `json:"region"`
	Scale  float64       `json:"scale"`
}

func (s *Server) handleCropRegion(args json.RawMessage) (interface{}, error) {
	var a cropRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Region.Empty() {
		return nil, fmt.Errorf("region must have a positive size, got %dx%d", a.Region.Width, a.Region.Height)
	}
	page, err := s.loadPage(a.Path, 0)
	if err != nil {
		return nil, err
	}
	return imaging.CropRegion(page.Image, a.Region, a.Scale)
}

// === Reading Handlers ===

type detectTablesResult struct {
	Source      string                  `json:"source"`
	PageIndex   int                     `json:"page_index"`
	SkewDegrees float64                 `json:"skew_degrees"`
	ROIFallback bool                    `json:"roi_fallback"`
	Count       int                     `json:"count"`
	Tables      []sheet.TableExtraction `json:"tables"`
}

func (s *Server) handleDetectTables(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	page, err := s.loadPage(a.Path, a.PageIndex)
	if err != nil {
		return nil, err
	}
	d, err := s.proc.DetectTables(ctx, page, s.reference())
	if err != nil {
		return nil, err
	}
	return &detectTablesResult{
		Source:      page.Source,
		PageIndex:   page.Index,
		SkewDegrees: d.Skew,
		ROIFallback: d.Fallback,
		Count:       len(d.Tables),
		Tables:      d.Tables,
	}, nil
}

type readSheetArgs struct {
	Path         string `json:"path"`
	PageIndex    int    `json:"page_index"`
	IncludeCells bool   `json:"include_cells"`
}

type readSheetResult struct {
	Source      string                   `json:"source"`
	PageIndex   int                      `json:"page_index"`
	SkewDegrees float64                  `json:"skew_degrees"`
	ROIFallback bool                     `json:"roi_fallback"`
	Tables      int                      `json:"tables"`
	Graded      bool                     `json:"graded"`
	Score       float64                  `json:"score"`
	Result      sheet.PageResult         `json:"result"`
	Questions   []sheet.NumberedQuestion `json:"questions,omitempty"`
}

func (s *Server) handleReadSheet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	page, err := s.loadPage(a.Path, a.PageIndex)
	if err != nil {
		return nil, err
	}
	sh, err := s.proc.ProcessPage(ctx, page, s.reference())
	if err != nil {
		return nil, err
	}

	out := &readSheetResult{
		Source:      sh.Source,
		PageIndex:   sh.PageIndex,
		SkewDegrees: sh.Skew,
		ROIFallback: sh.Fallback,
		Tables:      len(sh.Tables),
		Result:      sh.Result,
	}
	if key := s.answerKey(); key != nil {
		out.Result = grading.Evaluate(sh.Result, *key)
		out.Graded = true
		out.Score = grading.Score(out.Result)
	}
	if a.IncludeCells {
		out.Questions = sh.Questions
	}
	return out, nil
}

type renderOverlayArgs struct {
	Path      string `json:"path"`
	PageIndex int    `json:"page_index"`
	ShowCells *bool  `json:"show_cells"`
}

func (s *Server) handleRenderOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	page, err := s.loadPage(a.Path, a.PageIndex)
	if err != nil {
		return nil, err
	}
	sh, err := s.proc.ProcessPage(ctx, page, s.reference())
	if err != nil {
		return nil, err
	}
	showCells := a.ShowCells == nil || *a.ShowCells
	return imaging.RenderOverlay(sh.Image, overlayBoxes(sh, showCells), s.overlayStyle())
}

// overlayBoxes lays out tables, then cells, then marks so marks are drawn
// last and stay visible.
func overlayBoxes(sh *pipeline.Sheet, showCells bool) []imaging.OverlayBox {
	boxes := make([]imaging.OverlayBox, 0)
	for i, t := range sh.Tables {
		if t.Bounds == nil {
			continue
		}
		boxes = append(boxes, imaging.OverlayBox{
			Rect:  *t.Bounds,
			Kind:  imaging.OverlayTable,
			Label: "T" + strconv.Itoa(i+1),
		})
	}
	if showCells {
		for _, t := range sh.Tables {
			for _, c := range t.Cells {
				boxes = append(boxes, imaging.OverlayBox{Rect: c.Bounds, Kind: imaging.OverlayCell})
			}
		}
	}
	for _, q := range sh.Questions {
		for _, m := range q.Marks.Marked {
			boxes = append(boxes, imaging.OverlayBox{
				Rect:  m.Cell.Bounds,
				Kind:  imaging.OverlayMark,
				Label: strconv.Itoa(q.Number) + m.Label,
			})
		}
	}
	return boxes
}

type relativeRegionArgs struct {
	Table     geometry.Rect `json:"table"`
	Selection geometry.Rect `json:"selection"`
}

type relativeRegionResult struct {
	Region   geometry.RelativeRect `json:"region"`
	Restored geometry.Rect         `json:"restored"`
}

func (s *Server) handleRelativeRegion(args json.RawMessage) (interface{}, error) {
	var a relativeRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	rel, ok := geometry.Relativize(a.Selection, a.Table)
	if !ok {
		return nil, geometry.ErrInvalidRegion
	}
	return &relativeRegionResult{Region: rel, Restored: rel.Denormalize(a.Table)}, nil
}

// === Grading Session Handlers ===

type calibrateResult struct {
	Source   string  `json:"source"`
	Baseline float64 `json:"baseline"`
}

func (s *Server) handleCalibrate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	page, err := s.loadPage(a.Path, a.PageIndex)
	if err != nil {
		return nil, err
	}
	baseline, err := s.proc.Calibrate(ctx, page)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ref.Baseline = baseline
	s.mu.Unlock()

	return &calibrateResult{Source: page.Source, Baseline: baseline}, nil
}

type answerKeyResult struct {
	Source     string          `json:"source,omitempty"`
	Questions  int             `json:"questions"`
	Answers    map[int]string  `json:"answers"`
	TableBoxes []geometry.Rect `json:"table_boxes,omitempty"`
}

func (s *Server) handleLoadAnswerKey(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	page, err := s.loadPage(a.Path, a.PageIndex)
	if err != nil {
		return nil, err
	}
	// The key sheet is read with the calibrated baseline but never with the
	// boxes of a previous key.
	ref := pipeline.Reference{Baseline: s.reference().Baseline}
	key, boxes, err := s.proc.ReadAnswerKey(ctx, page, ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.key = &key
	s.ref.TableBoxes = boxes
	s.mu.Unlock()

	return &answerKeyResult{
		Source:     key.Source,
		Questions:  key.Len(),
		Answers:    key.Answers,
		TableBoxes: boxes,
	}, nil
}

type setAnswerKeyArgs struct {
	Answers map[string]string `json:"answers"`
	Source  string            `json:"source"`
}

func (s *Server) handleSetAnswerKey(args json.RawMessage) (interface{}, error) {
	var a setAnswerKeyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	answers := make(map[int]string, len(a.Answers))
	for q, ans := range a.Answers {
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid question number %q", q)
		}
		if ans = strings.TrimSpace(ans); ans != "" {
			answers[n] = ans
		}
	}
	if len(answers) == 0 {
		return nil, grading.ErrEmptyAnswerKey
	}
	key := sheet.AnswerKey{Source: a.Source, Answers: answers}

	s.mu.Lock()
	s.key = &key
	s.mu.Unlock()

	return &answerKeyResult{Source: key.Source, Questions: key.Len(), Answers: key.Answers}, nil
}

type gradeSheetsArgs struct {
	Paths []string `json:"paths"`
}

type gradedPage struct {
	Source string            `json:"source"`
	Error  string            `json:"error,omitempty"`
	Score  float64           `json:"score"`
	Result *sheet.PageResult `json:"result,omitempty"`
}

type gradeSummary struct {
	Pages      int     `json:"pages"`
	Failed     int     `json:"failed"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Unanswered int     `json:"unanswered"`
	MeanScore  float64 `json:"mean_score"`
}

type gradeSheetsResult struct {
	Summary gradeSummary `json:"summary"`
	Pages   []gradedPage `json:"pages"`
}

func (s *Server) handleGradeSheets(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gradeSheetsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths is required")
	}
	key := s.answerKey()
	if key == nil {
		return nil, ErrNoAnswerKey
	}

	out := &gradeSheetsResult{Pages: make([]gradedPage, len(a.Paths))}
	pages := make([]pipeline.Page, 0, len(a.Paths))
	slots := make([]int, 0, len(a.Paths))
	for i, path := range a.Paths {
		out.Pages[i].Source = path
		page, err := s.loadPage(path, i)
		if err != nil {
			out.Pages[i].Error = err.Error()
			continue
		}
		pages = append(pages, page)
		slots = append(slots, i)
	}

	var scoreSum float64
	for j, r := range s.proc.ProcessBatch(ctx, pages, s.reference()) {
		gp := &out.Pages[slots[j]]
		if r.Err != nil {
			gp.Error = r.Err.Error()
			continue
		}
		graded := grading.Evaluate(r.Sheet.Result, *key)
		gp.Result = &graded
		gp.Score = grading.Score(graded)
		scoreSum += gp.Score
		out.Summary.Correct += graded.Correct
		out.Summary.Incorrect += graded.Incorrect
		out.Summary.Unanswered += graded.Unanswered
	}

	out.Summary.Pages = len(a.Paths)
	for _, p := range out.Pages {
		if p.Error != "" {
			out.Summary.Failed++
		}
	}
	if ok := out.Summary.Pages - out.Summary.Failed; ok > 0 {
		out.Summary.MeanScore = scoreSum / float64(ok)
	}

	s.log.WithFields(logrus.Fields{
		"pages":  out.Summary.Pages,
		"failed": out.Summary.Failed,
	}).Info("Graded sheets")
	return out, nil
}

type sessionArgs struct {
	Reset bool `json:"reset"`
}

type sessionResult struct {
	Baseline    float64         `json:"baseline"`
	TableBoxes  []geometry.Rect `json:"table_boxes,omitempty"`
	KeySource   string          `json:"key_source,omitempty"`
	KeySize     int             `json:"key_questions"`
	CachedPages int             `json:"cached_pages"`
	OCREnabled  bool            `json:"ocr_enabled"`
}

func (s *Server) handleSession(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reset {
		s.mu.Lock()
		s.ref = pipeline.Reference{}
		s.key = nil
		s.mu.Unlock()
		s.cache.Clear()
	}

	ref := s.reference()
	out := &sessionResult{
		Baseline:    ref.Baseline,
		TableBoxes:  ref.TableBoxes,
		CachedPages: s.cache.Len(),
		OCREnabled:  s.proc.OCREnabled(),
	}
	if key := s.answerKey(); key != nil {
		out.KeySource = key.Source
		out.KeySize = key.Len()
	}
	return out, nil
}

// === OCR Handlers ===

func (s *Server) handleOCRInfo() (interface{}, error) {
	return ocr.Describe(s.rec), nil
}
