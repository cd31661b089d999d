package paging

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/templehub/internal/app/system/inputval"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		want      Page
		wantError string
	}{
		{name: "defaults", target: "/x", want: Page{Offset: 0, Limit: 50}},
		{name: "explicit", target: "/x?offset=100&limit=20", want: Page{Offset: 100, Limit: 20}},
		{name: "capped", target: "/x?limit=10000", want: Page{Limit: 500}},
		{name: "negative offset", target: "/x?offset=-1", want: Page{Limit: 50}, wantError: "offset"},
		{name: "zero limit", target: "/x?limit=0", want: Page{Limit: 50}, wantError: "limit"},
		{name: "garbage limit", target: "/x?limit=ten", want: Page{Limit: 50}, wantError: "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := inputval.FieldErrors{}
			got := Parse(httptest.NewRequest("GET", tt.target, nil), PageSize, MaxPageSize, fe)
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
			if tt.wantError == "" && len(fe) > 0 {
				t.Errorf("unexpected errors: %v", fe)
			}
			if tt.wantError != "" {
				if _, ok := fe[tt.wantError]; !ok {
					t.Errorf("expected error on %q, got %v", tt.wantError, fe)
				}
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	fe := inputval.FieldErrors{}
	got := ParseAll(httptest.NewRequest("GET", "/x?limit=0&offset=5", nil), PageSize, MaxPageSize, fe)
	if len(fe) > 0 {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if got != (Page{Offset: 5, Limit: 0}) {
		t.Errorf("ParseAll() = %+v, want every row from 5", got)
	}
	if got.HasMore(1000) {
		t.Error("an unbounded page never has more")
	}

	fe = inputval.FieldErrors{}
	if got := ParseAll(httptest.NewRequest("GET", "/x?limit=-3", nil), PageSize, MaxPageSize, fe); got.Limit != 0 || len(fe) > 0 {
		t.Errorf("negative limit: %+v %v", got, fe)
	}
}

func TestHasMore(t *testing.T) {
	tests := []struct {
		page  Page
		total int64
		want  bool
	}{
		{Page{Offset: 0, Limit: 50}, 0, false},
		{Page{Offset: 0, Limit: 50}, 50, false},
		{Page{Offset: 0, Limit: 50}, 51, true},
		{Page{Offset: 50, Limit: 50}, 120, true},
		{Page{Offset: 100, Limit: 50}, 120, false},
	}
	for _, tt := range tests {
		if got := tt.page.HasMore(tt.total); got != tt.want {
			t.Errorf("%+v.HasMore(%d) = %v, want %v", tt.page, tt.total, got, tt.want)
		}
	}
}
