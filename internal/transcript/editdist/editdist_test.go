package editdist_test

import (
	"testing"

	"github.com/MrWong99/homonym/internal/transcript/editdist"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"血氧饱和度", "血氧饱和度", 0},
		{"血养饱合度", "血氧饱和度", 2},
		{"雪养饱合度", "血氧饱和度", 3},
		{"饱和", "饱和度", 1},
		{"糖尿病", "唐氏综合征", 5},
	}
	for _, tt := range tests {
		if got := editdist.Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDistance_MetricLaws(t *testing.T) {
	t.Parallel()

	words := []string{"", "a", "ab", "ba", "abc", "血氧", "雪养", "血氧饱和度", "饱合度", "xueyan"}

	for _, a := range words {
		if d := editdist.Distance(a, a); d != 0 {
			t.Errorf("Distance(%q, %q) = %d, want 0", a, a, d)
		}
		for _, b := range words {
			ab, ba := editdist.Distance(a, b), editdist.Distance(b, a)
			if ab != ba {
				t.Errorf("Distance(%q, %q) = %d but Distance(%q, %q) = %d", a, b, ab, b, a, ba)
			}
			for _, c := range words {
				if ac, bc := editdist.Distance(a, c), editdist.Distance(b, c); ac > ab+bc {
					t.Errorf("triangle inequality violated for %q, %q, %q: %d > %d + %d", a, b, c, ac, ab, bc)
				}
			}
		}
	}
}

func TestWithin(t *testing.T) {
	t.Parallel()

	if !editdist.Within("血养饱合度", "血氧饱和度", 3) {
		t.Error("Within(distance 2, limit 3) = false, want true")
	}
	if editdist.Within("雪养饱合度", "血氧饱和度", 3) {
		t.Error("Within(distance 3, limit 3) = true, want false")
	}
}
