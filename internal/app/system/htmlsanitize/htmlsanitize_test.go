package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/templehub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"plain", "Hare Krishna", "Hare Krishna"},
		{"tags stripped", "<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"script dropped", "hi<script>alert(1)</script>", "hi"},
		{"entities kept readable", "Tom & Jerry <3", "Tom & Jerry <3"},
		{"attributes dropped", `<a href="javascript:x()">link</a>`, "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
