package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func TestFormatValidationErrors(t *testing.T) {
	type payload struct {
		Name    string   `validate:"required"`
		Options []string `validate:"min=2"`
	}
	err := validator.New().Struct(payload{Options: []string{"a"}})
	got := FormatValidationErrors(err)
	want := []string{
		"Field 'Name' failed on the 'required' tag",
		"Field 'Options' failed on the 'min' tag (value: 2)",
	}
	if len(got) != len(want) {
		t.Fatalf("got = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := FormatValidationErrors(errors.New("bad json")); len(got) != 1 || got[0] != "bad json" {
		t.Errorf("plain error = %v", got)
	}
	if got := FormatValidationErrors(nil); got != nil {
		t.Errorf("nil error = %v", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"talk.mp4", "talk.mp4"},
		{"  talk.mp4 ", "talk.mp4"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\clip.webm`, "clip.webm"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return RespondWithJSON(c, fiber.StatusCreated, fiber.Map{"id": "v1"}) })
	app.Get("/fail", func(c *fiber.Ctx) error { return RespondWithError(c, fiber.StatusNotFound, "Video not found") })

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/ok", fiber.StatusCreated, `{"status":"success","data":{"id":"v1"}}`},
		{"/fail", fiber.StatusNotFound, `{"status":"error","message":"Video not found"}`},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("%s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
		}
		var got, want any
		json.Unmarshal(body, &got)
		json.Unmarshal([]byte(tt.wantBody), &want)
		gb, _ := json.Marshal(got)
		wb, _ := json.Marshal(want)
		if string(gb) != string(wb) {
			t.Errorf("%s body = %s, want %s", tt.path, gb, wb)
		}
	}
}
