package receipt

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeRecognizer struct {
	text   string
	err    error
	format string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, format string) (string, error) {
	f.format = format
	return f.text, f.err
}

func TestParseTextKoreanReceipt(t *testing.T) {
	p := ParseText("환경부 충전소 충전량 : 23.5 kWh 충전금액 : 12,345원 충전시간 : 00:45:30")
	if p.ChargedKWh != 23.5 {
		t.Errorf("kwh = %v, want 23.5", p.ChargedKWh)
	}
	if p.Cost != 12345 {
		t.Errorf("cost = %v, want 12345", p.Cost)
	}
	if p.DurationText != "00:45:30" {
		t.Errorf("duration = %q, want 00:45:30", p.DurationText)
	}
}

func TestParseTextEnglishLabels(t *testing.T) {
	p := ParseText("Charged energy: 10.2 kWh Cost: 4,800 Duration 32:15")
	if p.ChargedKWh != 10.2 || p.Cost != 4800 || p.DurationText != "32:15" {
		t.Errorf("parsed = %+v", p)
	}
}

func TestParseTextChargedAmountIsEnergy(t *testing.T) {
	p := ParseText("Charged amount: 12.48 kWh Amount: 4,334 Charging time 00:41:10")
	if p.ChargedKWh != 12.48 || p.Cost != 4334 || p.DurationText != "00:41:10" {
		t.Errorf("parsed = %+v", p)
	}

	costFirst := ParseText("Amount 9,900 Charged amount 30.5")
	if costFirst.ChargedKWh != 30.5 || costFirst.Cost != 9900 {
		t.Errorf("cost before energy = %+v", costFirst)
	}

	onlyEnergy := ParseText("Charged amount: 7.2")
	if onlyEnergy.ChargedKWh != 7.2 || onlyEnergy.Cost != 0 {
		t.Errorf("energy label must not be read as cost: %+v", onlyEnergy)
	}
}

func TestParseTextMissingFieldsStayZero(t *testing.T) {
	p := ParseText("금액 5,000")
	if p.ChargedKWh != 0 {
		t.Errorf("kwh = %v, want 0", p.ChargedKWh)
	}
	if p.Cost != 5000 {
		t.Errorf("cost = %v, want 5000", p.Cost)
	}
	if p.DurationText != "" {
		t.Errorf("duration = %q, want empty", p.DurationText)
	}

	empty := ParseText("")
	if *empty != (Parsed{}) {
		t.Errorf("empty text parsed = %+v", empty)
	}
}

func TestParseDurationMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"45:30", 45.5},
		{"01:30:00", 90},
		{"00:00:30", 0.5},
		{"90", 0},
		{"1:2:3:4", 0},
		{"ab:cd", 0},
		{"45:", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseDurationMinutes(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseDurationMinutes(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestExtractPassesFormatAndParses(t *testing.T) {
	rec := &fakeRecognizer{text: "충전량 7.25 금액 3,210"}
	p, err := NewExtractor(rec).Extract(context.Background(), []byte{1}, "jpg")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.format != "jpg" {
		t.Errorf("format = %q", rec.format)
	}
	if p.ChargedKWh != 7.25 || p.Cost != 3210 {
		t.Errorf("parsed = %+v", p)
	}
}

func TestExtractPropagatesOCRFailure(t *testing.T) {
	rec := &fakeRecognizer{err: ErrOCRService}
	_, err := NewExtractor(rec).Extract(context.Background(), []byte{1}, "png")
	if !errors.Is(err, ErrOCRService) {
		t.Fatalf("err = %v, want ErrOCRService", err)
	}
}
