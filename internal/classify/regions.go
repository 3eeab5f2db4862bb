package classify

import (
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-tools-mcp/internal/geometry"
)

// RegionOverrides marks parts of a table as free-text OCR zones or as
// mark-only zones. Rectangles are relative to the table's bounding box, so
// one template fits every scan of the same sheet layout.
type RegionOverrides struct {
	OCR []geometry.RelativeRect `json:"ocr,omitempty" yaml:"ocr"`
	OMR []geometry.RelativeRect `json:"omr,omitempty" yaml:"omr"`
}

// Empty reports whether no zones are set.
func (o RegionOverrides) Empty() bool {
	return len(o.OCR) == 0 && len(o.OMR) == 0
}

// resolvedRegions holds zones in page coordinates.
type resolvedRegions struct {
	ocr []geometry.Rect
	omr []geometry.Rect
}

// resolve maps the overrides onto a table's bounds. Entries that fail
// validation are skipped and logged.
func (o RegionOverrides) resolve(ref geometry.Rect, log *logrus.Entry) resolvedRegions {
	return resolvedRegions{
		ocr: denormalizeAll(o.OCR, ref, "ocr", log),
		omr: denormalizeAll(o.OMR, ref, "omr", log),
	}
}

func denormalizeAll(regions []geometry.RelativeRect, ref geometry.Rect, kind string, log *logrus.Entry) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(regions))
	for i, r := range regions {
		if err := r.Validate(); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"kind":  kind,
				"index": i,
			}).Warn("Skipping region override")
			continue
		}
		out = append(out, r.Denormalize(ref))
	}
	return out
}

// markOnly reports whether a cell sits in a mark-only zone and in no OCR
// zone.
func (r resolvedRegions) markOnly(cell geometry.Rect) bool {
	if len(r.omr) == 0 || !cell.IntersectsAny(r.omr) {
		return false
	}
	return !cell.IntersectsAny(r.ocr)
}
