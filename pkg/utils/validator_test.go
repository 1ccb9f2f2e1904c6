package utils

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Content string `json:"content" validate:"required,notblank,max=10"`
	Status  string `query:"status" validate:"omitempty,oneof=ready failed"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		req       sampleRequest
		wantField string
		wantTag   string
	}{
		{"valid", sampleRequest{Content: "ท่าเรือ"}, "", ""},
		{"missing", sampleRequest{}, "content", "required"},
		{"blank", sampleRequest{Content: "   "}, "content", "notblank"},
		{"too long", sampleRequest{Content: strings.Repeat("a", 11)}, "content", "max"},
		{"bad status", sampleRequest{Content: "ok", Status: "done"}, "status", "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs := GetValidationErrors(err)
			if len(errs) != 1 || errs[0].Field != tt.wantField || errs[0].Tag != tt.wantTag {
				t.Errorf("errors = %+v, want %s/%s", errs, tt.wantField, tt.wantTag)
			}
		})
	}
}
