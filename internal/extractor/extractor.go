// Package extractor locates release announcement blocks in the DSN-val
// download page.
package extractor

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/pkg/utils"
)

// InstallerExtensions lists the download targets that qualify a link.
var InstallerExtensions = []string{".zip", ".exe", ".msi"}

// Extractor pairs version captions with installer links. Both live in
// <strong> elements: the caption as plain text, the link as an anchor.
type Extractor struct {
	captionPattern *regexp.Regexp
	extensions     map[string]struct{}
}

// New creates an Extractor for the known page structure.
func New() *Extractor {
	exts := make(map[string]struct{}, len(InstallerExtensions))
	for _, ext := range InstallerExtensions {
		exts[ext] = struct{}{}
	}
	return &Extractor{
		captionPattern: regexp.MustCompile(`Version\s+\d{4}.*\d{4}`),
		extensions:     exts,
	}
}

// Extract returns announcement blocks in document order. Relative links are
// resolved against sourceURL when it is set. A page without any matching
// block yields an empty slice.
func (e *Extractor) Extract(rawHTML, sourceURL string) ([]entity.AnnouncementBlock, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fmt.Errorf("%w: empty document", entity.ErrParse)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: reading document: %w", entity.ErrParse, err)
	}

	var base *url.URL
	if sourceURL != "" {
		base, err = url.Parse(sourceURL)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid source URL %q: %w", entity.ErrParse, sourceURL, err)
		}
	}

	var captions, links []string
	var linkErr error

	doc.Find("strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Only the innermost <strong> counts; a wrapper would report the
		// same caption or link twice.
		if s.Find("strong").Length() > 0 {
			return true
		}

		if anchors := s.Find("a[href]"); anchors.Length() > 0 {
			anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
				href := strings.TrimSpace(a.AttrOr("href", ""))
				if !e.isInstaller(href) {
					return true
				}
				link, err := resolve(base, href)
				if err != nil {
					linkErr = err
					return false
				}
				links = append(links, link)
				return false
			})
			return linkErr == nil
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" && e.captionPattern.MatchString(text) {
			captions = append(captions, text)
		}
		return true
	})
	if linkErr != nil {
		return nil, linkErr
	}

	if len(captions) != len(links) {
		return nil, fmt.Errorf("%w: %d versions, %d links", entity.ErrMismatch, len(captions), len(links))
	}

	blocks := make([]entity.AnnouncementBlock, len(captions))
	for i := range captions {
		blocks[i] = entity.AnnouncementBlock{Caption: captions[i], Link: links[i]}
	}
	return blocks, nil
}

func (e *Extractor) isInstaller(href string) bool {
	if href == "" {
		return false
	}
	p := href
	if u, err := url.Parse(href); err == nil {
		p = u.Path
	}
	_, ok := e.extensions[strings.ToLower(path.Ext(p))]
	return ok
}

func resolve(base *url.URL, href string) (string, error) {
	if base == nil {
		return href, nil
	}
	abs, err := utils.ToAbsoluteURL(base, href)
	if err != nil {
		return "", fmt.Errorf("%w: invalid download link %q: %w", entity.ErrParse, href, err)
	}
	return abs, nil
}
