// Package normalizer turns release captions such as
// "Version 2024.1.42 du 15 mars 2024" into a build identifier and an ISO date.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/user/dsnval-service/internal/entity"
	"go.uber.org/zap"
)

// Mode selects how a month name outside the table is handled.
type Mode string

const (
	// Strict fails with entity.ErrUnknownMonth.
	Strict Mode = "strict"
	// Lenient resolves the month to January and logs a warning.
	Lenient Mode = "lenient"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Strict, "":
		return Strict, nil
	case Lenient:
		return Lenient, nil
	default:
		return "", fmt.Errorf("unknown month mode %q (want strict or lenient)", s)
	}
}

const (
	minTokens    = 6
	captionStart = "Version"
)

// connectors sit between the build identifier and the day.
var connectors = map[string]struct{}{
	"du":   {},
	"le":   {},
	"en":   {},
	"date": {},
	"au":   {},
}

// caption is the parsed form of
//
//	prefix buildToken+ connector+ day month year trailing*
type caption struct {
	prefix  string
	buildID string
	day     string
	month   string
	year    string
}

// Normalizer parses version captions.
type Normalizer struct {
	mode   Mode
	logger *zap.Logger
}

// New creates a Normalizer. A nil logger is replaced by a no-op logger.
func New(mode Mode, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = Strict
	}
	return &Normalizer{mode: mode, logger: logger}
}

// Mode returns the configured month mode.
func (n *Normalizer) Mode() Mode {
	return n.mode
}

// Normalize extracts the build identifier and release date from text.
func (n *Normalizer) Normalize(text string) (string, entity.ReleaseDate, error) {
	c, err := parseCaption(text)
	if err != nil {
		return "", entity.ReleaseDate{}, err
	}

	day, ok := parseDay(c.day)
	if !ok {
		return "", entity.ReleaseDate{}, fmt.Errorf("%w: invalid day value %q", entity.ErrValidation, c.day)
	}

	if !isYear(c.year) {
		return "", entity.ReleaseDate{}, fmt.Errorf("%w: invalid year value %q", entity.ErrValidation, c.year)
	}
	year, _ := strconv.Atoi(c.year)

	month, ok := MonthNumber(c.month)
	if !ok {
		if n.mode != Lenient {
			return "", entity.ReleaseDate{}, fmt.Errorf("%w: %q", entity.ErrUnknownMonth, c.month)
		}
		n.logger.Warn("unrecognized month, defaulting to January",
			zap.String("month", c.month), zap.String("caption", text))
		month = 1
	}

	return c.buildID, entity.ReleaseDate{Year: year, Month: month, Day: day}, nil
}

// Release builds a complete record from one announcement block.
func (n *Normalizer) Release(block entity.AnnouncementBlock) (entity.Release, error) {
	link := strings.TrimSpace(block.Link)
	if link == "" {
		return entity.Release{}, fmt.Errorf("%w: empty download link for %q", entity.ErrParse, block.Caption)
	}
	buildID, date, err := n.Normalize(block.Caption)
	if err != nil {
		return entity.Release{}, err
	}
	return entity.Release{BuildID: buildID, ReleaseDate: date, DownloadURL: link}, nil
}

func parseCaption(text string) (caption, error) {
	tokens := strings.Fields(text)
	if len(tokens) < minTokens {
		return caption{}, fmt.Errorf("%w: invalid version format - expected at least %d parts, got %d: %q",
			entity.ErrParse, minTokens, len(tokens), text)
	}
	if !strings.EqualFold(tokens[0], captionStart) {
		return caption{}, fmt.Errorf("%w: caption does not start with %q: %q", entity.ErrParse, captionStart, text)
	}

	conn := -1
	for i := 2; i < len(tokens); i++ {
		if isConnector(tokens[i]) {
			conn = i
			break
		}
	}
	if conn < 0 {
		return caption{}, fmt.Errorf("%w: no date connector in %q", entity.ErrParse, text)
	}

	j := conn
	for j < len(tokens) && isConnector(tokens[j]) {
		j++
	}
	if len(tokens)-j < 3 {
		return caption{}, fmt.Errorf("%w: incomplete date in %q", entity.ErrParse, text)
	}

	return caption{
		prefix:  tokens[0],
		buildID: tokens[conn-1],
		day:     tokens[j],
		month:   tokens[j+1],
		year:    tokens[j+2],
	}, nil
}

func isConnector(tok string) bool {
	if _, ok := connectors[strings.ToLower(tok)]; ok {
		return true
	}
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// parseDay accepts 1..31 and the French ordinal "1er".
func parseDay(s string) (int, bool) {
	if s == "1er" {
		return 1, true
	}
	if s == "" || len(s) > 2 || !isDigits(s) {
		return 0, false
	}
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 || d > 31 {
		return 0, false
	}
	return d, true
}

func isYear(s string) bool {
	return len(s) == 4 && isDigits(s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
