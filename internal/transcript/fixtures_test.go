package transcript_test

import (
	"github.com/MrWong99/homonym/internal/dictionary"
	"github.com/MrWong99/homonym/pkg/reading"
)

// readings is a small tone-stripped Pinyin table covering every character
// used by the tests in this package.
var readings = reading.Static{
	'他': {"ta"},
	'的': {"de", "di"},
	'血': {"xue", "xie"},
	'雪': {"xue"},
	'氧': {"yang"},
	'养': {"yang"},
	'饱': {"bao"},
	'和': {"he", "huo", "hu"},
	'合': {"he", "ge"},
	'度': {"du", "duo"},
	'是': {"shi"},
	'唐': {"tang"},
	'糖': {"tang"},
	'汤': {"tang"},
	'氏': {"shi", "zhi"},
	'狮': {"shi"},
	'综': {"zong"},
	'棕': {"zong"},
	'河': {"he"},
	'征': {"zheng"},
	'症': {"zheng"},
	'睁': {"zheng"},
	'很': {"hen"},
	'危': {"wei"},
	'险': {"xian"},
	'脑': {"nao"},
	'老': {"lao"},
	'膜': {"mo"},
	'炎': {"yan"},
	'奥': {"ao"},
}

// medicalTerms mirrors a small slice of a medical term table.
var medicalTerms = dictionary.TermsFromMap(map[string]string{
	"xueyangbaohedu":     "血氧饱和度",
	"tangshizonghezheng": "唐氏综合征",
	"naomoyan":           "脑膜炎",
})
