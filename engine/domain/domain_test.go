package domain

import (
	"errors"
	"testing"
)

func TestIDDerivation(t *testing.T) {
	base := "gates_of_morning_ch1"

	if got := OriginalID(base); got != "gates_of_morning_ch1_original" {
		t.Errorf("OriginalID = %q", got)
	}
	if got := SpunID(base, 2); got != "gates_of_morning_ch1_ai_spun_iter_2" {
		t.Errorf("SpunID = %q", got)
	}
	if got := CheckpointBaseID(base, 1); got != "gates_of_morning_ch1_iter_1" {
		t.Errorf("CheckpointBaseID = %q", got)
	}
	if got := SpunTag(3); got != VersionTag("ai_spun_iter_3") {
		t.Errorf("SpunTag = %q", got)
	}
}

func TestValidateVariant(t *testing.T) {
	tests := []struct {
		name    string
		variant TextVariant
		wantErr error
	}{
		{"valid", TextVariant{ID: "ch1_original", Content: "text", Tag: TagOriginal}, nil},
		{"empty content ok", TextVariant{ID: "ch1_iter_1_human_edited", Tag: TagHumanEdited}, nil},
		{"empty id", TextVariant{Content: "text", Tag: TagFinal}, ErrEmptyID},
		{"bad id", TextVariant{ID: "ch1 original", Content: "text", Tag: TagOriginal}, ErrBadID},
		{"empty tag", TextVariant{ID: "ch1_original", Content: "text"}, ErrEmptyTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariant(tt.variant)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
