package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/civiceg/voterlookup/models"
)

// minPlausibleLength is the shortest page text that can carry a result.
// Anything below it is a page that has not rendered.
const minPlausibleLength = 10

// Classify decides the outcome of one page read.
//
// The terminal phrases are checked against the raw text before any field
// extraction: a terminal page carries no record and extraction is skipped
// entirely. Any other plausible page is treated as a registration page,
// even when every field extracts empty — the caller flags that shape for
// monitoring.
func Classify(pageHTML, pageText string) (*models.Outcome, *models.LookupError) {
	if utf8.RuneCountInString(strings.TrimSpace(pageText)) < minPlausibleLength {
		return nil, models.NewLookupError(
			models.ErrCodeEmptyPage,
			"page content is empty or incomplete",
			nil,
		)
	}

	if strings.Contains(pageText, MsgUnderage) {
		return &models.Outcome{
			Status:  models.StatusUnderage,
			Message: MsgUnderage,
		}, nil
	}

	if strings.Contains(pageText, MsgNotRegistered) {
		return &models.Outcome{
			Status:  models.StatusNotRegistered,
			Message: MsgNotRegistered,
		}, nil
	}

	rec := Fields(pageHTML, pageText)
	return &models.Outcome{
		Status: models.StatusRegistered,
		Record: &rec,
	}, nil
}
