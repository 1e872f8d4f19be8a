package core

import "testing"

func TestBucketHour(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{5, TimeMorning},
		{11, TimeMorning},
		{12, TimeAfternoon},
		{16, TimeAfternoon},
		{17, TimeEvening},
		{21, TimeEvening},
		{22, TimeNight},
		{23, TimeNight},
		{0, TimeNight},
		{4, TimeNight},
	}
	for _, tt := range tests {
		if got := BucketHour(tt.hour); got != tt.want {
			t.Errorf("BucketHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestViewingContext_HasHistory(t *testing.T) {
	var nilVC *ViewingContext
	if nilVC.HasHistory() {
		t.Error("nil context reports history")
	}
	if (&ViewingContext{}).HasHistory() {
		t.Error("empty context reports history")
	}
	vc := &ViewingContext{RecentGenres: map[string]struct{}{"Action": {}}}
	if !vc.HasHistory() {
		t.Error("populated context reports no history")
	}
}
