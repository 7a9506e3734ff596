package models

import (
	"testing"
	"time"
)

func TestThresholdValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      Threshold
		wantErr bool
	}{
		{"valid", Threshold{ActionBan, 3, 1}, false},
		{"unknown action", Threshold{"self_destruct", 3, 1}, true},
		{"zero count", Threshold{ActionBan, 0, 1}, true},
		{"negative count", Threshold{ActionBan, -1, 1}, true},
		{"zero window", Threshold{ActionBan, 3, 0}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestThresholdWindow(t *testing.T) {
	got := Threshold{ActionBan, 3, 2}.Window()
	if got != 2*time.Hour {
		t.Fatalf("Window() = %v, want 2h", got)
	}
}

func TestDefaultThresholds(t *testing.T) {
	// Every recognized action must have a default, or default deny would
	// silently disable a tracked action type.
	for _, action := range AllActionTypes() {
		th, ok := DefaultThreshold(action)
		if !ok {
			t.Errorf("no default threshold for %s", action)
			continue
		}
		if err := th.Validate(); err != nil {
			t.Errorf("default threshold for %s invalid: %v", action, err)
		}
	}

	if th, _ := DefaultThreshold(ActionBan); th.Count != 3 || th.WindowHours != 1 {
		t.Errorf("ban default = %d/%dh, want 3/1h", th.Count, th.WindowHours)
	}
	if th, _ := DefaultThreshold(ActionEmojiCreate); th.Count != 10 {
		t.Errorf("emoji_create default count = %d, want 10", th.Count)
	}

	if _, ok := DefaultThreshold("unknown_action"); ok {
		t.Error("unknown action returned a default threshold")
	}
}

func TestSetDefaultThreshold(t *testing.T) {
	orig, _ := DefaultThreshold(ActionKick)
	defer SetDefaultThreshold(orig)

	if err := SetDefaultThreshold(Threshold{ActionKick, 7, 2}); err != nil {
		t.Fatalf("SetDefaultThreshold() error = %v", err)
	}
	got, _ := DefaultThreshold(ActionKick)
	if got.Count != 7 || got.WindowHours != 2 {
		t.Fatalf("override not applied, got %d/%dh", got.Count, got.WindowHours)
	}

	if err := SetDefaultThreshold(Threshold{"bogus", 1, 1}); err == nil {
		t.Fatal("unknown action accepted as default override")
	}
}

func TestParseActionType(t *testing.T) {
	if a, err := ParseActionType("channel_delete"); err != nil || a != ActionChannelDelete {
		t.Fatalf("ParseActionType(channel_delete) = %v, %v", a, err)
	}
	if _, err := ParseActionType("format_disk"); err == nil {
		t.Fatal("ParseActionType accepted unknown input")
	}
}

func TestParsePunishment(t *testing.T) {
	for _, s := range []string{"jail", "ban", "kick"} {
		if _, err := ParsePunishment(s); err != nil {
			t.Errorf("ParsePunishment(%s) error = %v", s, err)
		}
	}
	if _, err := ParsePunishment("timeout"); err == nil {
		t.Fatal("ParsePunishment accepted unknown input")
	}
}
