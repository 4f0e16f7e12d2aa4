// Package receipt turns a photo of a charger receipt into charged energy, cost and duration.
package receipt

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	energyPattern   = regexp.MustCompile(`(?i)(?:충전량|charged\s+amount|charged\s+energy|energy)\s*[:\s]*([\d.]+)`)
	costPattern     = regexp.MustCompile(`(?i)(?:충전금액|금액|cost|price|amount)\s*[:\s]*(?:₩\s*)?([\d,]+)`)
	durationPattern = regexp.MustCompile(`(?i)(?:충전시간|charging\s+time|duration)\s*[:\s]*([\d:]+)`)
)

// Parsed is what could be read off a receipt. Missing fields stay zero.
type Parsed struct {
	ChargedKWh   float64 `json:"charged_kwh"`
	Cost         int64   `json:"cost"`
	DurationText string  `json:"duration_text"`
}

// Recognizer returns the text recognized in an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, format string) (string, error)
}

// Extractor runs OCR and pattern-matches the three receipt fields.
type Extractor struct {
	ocr Recognizer
}

// NewExtractor builds extractor.
func NewExtractor(ocr Recognizer) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract fails only with ErrOCRService; unreadable fields are left empty.
func (e *Extractor) Extract(ctx context.Context, image []byte, format string) (*Parsed, error) {
	text, err := e.ocr.Recognize(ctx, image, format)
	if err != nil {
		return nil, err
	}
	return ParseText(text), nil
}

// ParseText applies the field patterns independently.
func ParseText(text string) *Parsed {
	p := &Parsed{}
	energyStart, energyEnd := -1, -1
	if m := energyPattern.FindStringSubmatchIndex(text); m != nil {
		energyStart, energyEnd = m[0], m[1]
		if v, err := strconv.ParseFloat(text[m[2]:m[3]], 64); err == nil {
			p.ChargedKWh = v
		}
	}
	// "Charged amount" is energy; a cost label inside the energy match is skipped.
	for _, m := range costPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] >= energyStart && m[0] < energyEnd {
			continue
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(text[m[2]:m[3]], ",", ""), 64); err == nil {
			p.Cost = int64(math.Round(v))
		}
		break
	}
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		p.DurationText = m[1]
	}
	return p
}

// ParseDurationMinutes reads "m:s" or "h:m:s" into fractional minutes.
// Any other shape or a non-numeric part yields 0.
func ParseDurationMinutes(text string) float64 {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}
	nums := make([]float64, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		nums[i] = float64(n)
	}
	if len(nums) == 2 {
		return nums[0] + nums[1]/60
	}
	return nums[0]*60 + nums[1] + nums[2]/60
}
