package usecase

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/normalizer"
)

// Selection decides which announcement blocks become releases.
type Selection string

const (
	// SelectAll keeps every block in document order.
	SelectAll Selection = "all"
	// SelectLatest keeps the last block in document order. This matches the
	// page as published today, where new versions are appended below old ones.
	SelectLatest Selection = "latest"
	// SelectFirst keeps the first block in document order.
	SelectFirst Selection = "first"
	// SelectNewest keeps the block with the greatest release date.
	SelectNewest Selection = "newest"
)

// ParseSelection converts a configuration value into a Selection.
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(strings.ToLower(strings.TrimSpace(s))); sel {
	case "":
		return SelectLatest, nil
	case SelectAll, SelectLatest, SelectFirst, SelectNewest:
		return sel, nil
	default:
		return "", fmt.Errorf("unknown selection %q (want all, latest, first or newest)", s)
	}
}

// Assembler turns announcement blocks into releases.
type Assembler struct {
	normalizer *normalizer.Normalizer
	selection  Selection
}

// NewAssembler creates an Assembler.
func NewAssembler(n *normalizer.Normalizer, selection Selection) *Assembler {
	if selection == "" {
		selection = SelectLatest
	}
	return &Assembler{normalizer: n, selection: selection}
}

// Selection returns the configured policy.
func (a *Assembler) Selection() Selection {
	return a.selection
}

// Assemble applies the selection policy. Only the blocks the policy looks at
// are normalised; any failure among them aborts with no output.
func (a *Assembler) Assemble(blocks []entity.AnnouncementBlock) (*entity.ReleaseSet, error) {
	if a.selection == SelectAll {
		releases, err := a.normalizeAll(blocks)
		if err != nil {
			return nil, err
		}
		return &entity.ReleaseSet{Releases: releases}, nil
	}

	if len(blocks) == 0 {
		return nil, entity.ErrNoRelease
	}

	var picked entity.Release
	switch a.selection {
	case SelectFirst:
		r, err := a.normalizer.Release(blocks[0])
		if err != nil {
			return nil, err
		}
		picked = r
	case SelectNewest:
		releases, err := a.normalizeAll(blocks)
		if err != nil {
			return nil, err
		}
		picked = newest(releases)
	default:
		r, err := a.normalizer.Release(blocks[len(blocks)-1])
		if err != nil {
			return nil, err
		}
		picked = r
	}

	return &entity.ReleaseSet{Single: true, Releases: []entity.Release{picked}}, nil
}

func (a *Assembler) normalizeAll(blocks []entity.AnnouncementBlock) ([]entity.Release, error) {
	releases := make([]entity.Release, 0, len(blocks))
	for _, b := range blocks {
		r, err := a.normalizer.Release(b)
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	return releases, nil
}

// newest picks the release with the greatest date. Equal dates fall back to
// comparing build ids as versions, then to document order (later wins).
func newest(releases []entity.Release) entity.Release {
	best := releases[0]
	for _, r := range releases[1:] {
		switch {
		case best.ReleaseDate.Before(r.ReleaseDate):
			best = r
		case r.ReleaseDate.Before(best.ReleaseDate):
		case !buildLess(r.BuildID, best.BuildID):
			best = r
		}
	}
	return best
}

// buildLess reports whether build a sorts strictly before build b. Ids that
// do not parse as versions are never ordered.
func buildLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	return va.LessThan(vb)
}
