package locale

import (
	"strings"
	"unicode"

	"github.com/tomsarry/tubescope/models"
)

// Reasons recorded on a classification.
const (
	ReasonCountry     = "country"
	ReasonLanguage    = "language"
	ReasonTitleScript = "title_script"
	ReasonVideoScript = "video_script"
	ReasonDisabled    = "disabled"
)

// Japanese is Hiragana, Katakana and the CJK ideograph block up to U+9FAF.
var Japanese = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3040, Hi: 0x309f, Stride: 1},
		{Lo: 0x30a0, Hi: 0x30ff, Stride: 1},
		{Lo: 0x4e00, Hi: 0x9faf, Stride: 1},
	},
}

// Channel carries the channel-level signals.
type Channel struct {
	ID       string
	Title    string
	Country  string
	Language string
}

// VideoText is the text of one video owned by the channel.
type VideoText struct {
	Title       string
	Description string
}

// Classifier decides whether a channel belongs to the target locale.
//
// It is a heuristic. A channel is local when its country matches, or its
// declared language matches, or its title has a script rune, or (only when
// none of those hold) one of its videos has a script rune in its title or
// description.
type Classifier struct {
	Region   string
	Language string
	Script   *unicode.RangeTable
}

// NewClassifier returns a classifier for region and language using the
// Japanese script table.
func NewClassifier(region, language string) *Classifier {
	return &Classifier{
		Region:   strings.ToUpper(region),
		Language: strings.ToLower(language),
		Script:   Japanese,
	}
}

// HasScript reports whether s contains at least one rune of the target script.
func (c *Classifier) HasScript(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.Is(c.Script, r)
	}) >= 0
}

// Classify applies the signals in order and stops at the first match.
func (c *Classifier) Classify(ch Channel, videos []VideoText) models.ChannelClassification {
	res := models.ChannelClassification{
		ChannelID:   ch.ID,
		Country:     ch.Country,
		Language:    ch.Language,
		ScriptMatch: c.HasScript(ch.Title),
	}

	switch {
	case ch.Country != "" && ch.Country == c.Region:
		res.Reason = ReasonCountry
	case ch.Language != "" && ch.Language == c.Language:
		res.Reason = ReasonLanguage
	case res.ScriptMatch:
		res.Reason = ReasonTitleScript
	case c.anyVideoHasScript(videos):
		res.Reason = ReasonVideoScript
	}

	res.IsLocal = res.Reason != ""
	return res
}

func (c *Classifier) anyVideoHasScript(videos []VideoText) bool {
	for _, v := range videos {
		if c.HasScript(v.Title) || c.HasScript(v.Description) {
			return true
		}
	}
	return false
}
