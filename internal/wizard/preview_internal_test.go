package wizard

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/kinobot/internal/catalog"
)

func TestPreviewCaptionFitsTelegramLimit(t *testing.T) {
	year, duration, rating := 2021, 155, 8.0
	d := Draft{
		Kind:        catalog.KindMovie,
		Title:       strings.Repeat("T", 256),
		Description: strings.Repeat("d", 1000),
		Genre:       strings.Repeat("g", 300),
		Year:        &year,
		Duration:    &duration,
		Rating:      &rating,
	}

	caption := previewCaption(d)
	assert.LessOrEqual(t, utf8.RuneCountInString(caption), 1024)
	assert.Contains(t, caption, "⏱ Duration: 155 min")
	assert.True(t, strings.HasSuffix(caption, "Save this entry?"))
}

func TestPreviewCaptionKeepsShortFields(t *testing.T) {
	d := Draft{Kind: catalog.KindSeries, Title: "Dark & Deep", Description: "Time travel.", Genre: "Drama"}

	caption := previewCaption(d)
	assert.Contains(t, caption, "📝 Title: Dark &amp; Deep\n")
	assert.Contains(t, caption, "📖 Description: Time travel.\n")
	assert.Contains(t, caption, "📅 Year: -\n")
}
