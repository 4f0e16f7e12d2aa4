package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOCRClientRequestAndJoin(t *testing.T) {
	var got ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-OCR-SECRET") != "s3cret" {
			t.Errorf("secret header = %q", r.Header.Get("X-OCR-SECRET"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"images":[{"inferResult":"SUCCESS","fields":[{"inferText":"충전량"},{"inferText":"12.5"},{"inferText":"kWh"}]}]}`))
	}))
	defer srv.Close()

	c := NewOCRClient(srv.URL, "s3cret", "", NewDefaultHTTPClient(time.Second))
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	text, err := c.Recognize(context.Background(), []byte("img"), "jpg")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "충전량 12.5 kWh" {
		t.Errorf("text = %q", text)
	}
	if got.Version != "V2" || got.Lang != "ko" || got.Timestamp != 1700000000000 || got.RequestID == "" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0].Format != "jpg" || got.Images[0].Name != "receipt" {
		t.Fatalf("images = %+v", got.Images)
	}
	if got.Images[0].Data != base64.StdEncoding.EncodeToString([]byte("img")) {
		t.Errorf("image data not base64 encoded")
	}
}

func TestOCRClientFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"images":`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c := NewOCRClient(srv.URL, "", "ko", NewDefaultHTTPClient(time.Second))
			if _, err := c.Recognize(context.Background(), []byte("x"), "png"); !errors.Is(err, ErrOCRService) {
				t.Fatalf("err = %v, want ErrOCRService", err)
			}
		})
	}
}

func TestOCRClientNoImagesIsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images":[]}`))
	}))
	defer srv.Close()

	text, err := NewOCRClient(srv.URL, "", "ko", srv.Client()).Recognize(context.Background(), nil, "png")
	if err != nil || text != "" {
		t.Fatalf("text = %q, err = %v", text, err)
	}
}

func TestFormatFor(t *testing.T) {
	cases := []struct{ name, ct, want string }{
		{"receipt.JPG", "", "jpg"},
		{"scan.png", "image/jpeg", "png"},
		{"", "image/jpeg", "jpg"},
		{"blob", "image/tiff", "tiff"},
		{"", "", "png"},
	}
	for _, tc := range cases {
		if got := FormatFor(tc.name, tc.ct); got != tc.want {
			t.Errorf("FormatFor(%q, %q) = %q, want %q", tc.name, tc.ct, got, tc.want)
		}
	}
}
