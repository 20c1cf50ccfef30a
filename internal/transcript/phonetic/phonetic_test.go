package phonetic_test

import (
	"testing"

	"github.com/MrWong99/homonym/internal/transcript/phonetic"
)

func TestNormalize_Folds(t *testing.T) {
	t.Parallel()

	n := phonetic.New(true)

	tests := []struct {
		in   string
		want string
	}{
		// Initials.
		{"shi", "si"},
		{"chi", "ci"},
		{"zhi", "zi"},
		{"ni", "li"},
		{"ren", "len"},
		{"he", "fe"},
		{"hu", "fu"},
		// Finals.
		{"xiang", "xian"},
		{"guang", "guan"},
		{"yang", "yan"},
		{"feng", "fen"},
		{"ming", "min"},
		// Both stages on one syllable.
		{"shang", "san"},
		{"huang", "fuan"},
		{"zheng", "zen"},
		{"niang", "lian"},
		{"chuang", "cuan"},
		{"reng", "len"},
		// Untouched.
		{"xue", "xue"},
		{"bao", "bao"},
		{"du", "du"},
		{"a", "a"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_OnlyFirstInitialRule(t *testing.T) {
	t.Parallel()

	n := phonetic.New(true)

	// "ch" wins, so the "h" rule never sees the syllable.
	if got := n.Normalize("chu"); got != "cu" {
		t.Errorf("Normalize(%q) = %q, want %q", "chu", got, "cu")
	}
	// "n" replaces only the leading letter.
	if got := n.Normalize("nan"); got != "lan" {
		t.Errorf("Normalize(%q) = %q, want %q", "nan", got, "lan")
	}
}

func TestNormalize_Disabled(t *testing.T) {
	t.Parallel()

	n := phonetic.New(false)
	for _, s := range []string{"shang", "huang", "xueyangbaohedu", "ni"} {
		if got := n.Normalize(s); got != s {
			t.Errorf("Normalize(%q) with fuzzy disabled = %q, want identity", s, got)
		}
	}

	var zero phonetic.Normalizer
	if zero.Fuzzy() {
		t.Error("zero Normalizer reports fuzzy enabled")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	n := phonetic.New(true)

	syllables := []string{
		"a", "ai", "an", "ang", "ba", "bang", "beng", "bing", "cha", "chang",
		"cheng", "chi", "chong", "chuang", "de", "eng", "ha", "hang", "heng",
		"hong", "huang", "jiang", "jing", "kuang", "lang", "ling", "nang",
		"neng", "niang", "ning", "rang", "reng", "ri", "shang", "sheng",
		"shuang", "xiang", "xing", "yang", "ying", "zhang", "zheng", "zhuang",
		"hng", "ng", "n", "h", "sh",
	}
	for _, s := range syllables {
		once := n.Normalize(s)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", s, twice, once)
		}
	}
}

func TestNormalize_NonSyllablesMayFoldTwice(t *testing.T) {
	t.Parallel()

	n := phonetic.New(true)
	for in, want := range map[string][2]string{
		"shh": {"sh", "s"},
		"chh": {"ch", "c"},
		"zhh": {"zh", "z"},
	} {
		once := n.Normalize(in)
		if once != want[0] {
			t.Errorf("Normalize(%q) = %q, want %q", in, once, want[0])
		}
		if twice := n.Normalize(once); twice != want[1] {
			t.Errorf("Normalize(%q) = %q, want %q", once, twice, want[1])
		}
	}
}
