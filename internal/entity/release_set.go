package entity

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ReleaseSet is the assembled output of one pipeline run. A single-record
// selection serialises as one JSON object, the "all" selection as an array.
type ReleaseSet struct {
	Single   bool
	Releases []Release
}

// Latest returns the last release of the set: the one selected release of a
// single-record set, or the last in document order for "all".
func (s *ReleaseSet) Latest() (Release, bool) {
	if len(s.Releases) == 0 {
		return Release{}, false
	}
	return s.Releases[len(s.Releases)-1], true
}

// Clone returns a copy that shares no memory with s.
func (s *ReleaseSet) Clone() *ReleaseSet {
	out := &ReleaseSet{Single: s.Single}
	if s.Releases != nil {
		out.Releases = append([]Release(nil), s.Releases...)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s ReleaseSet) MarshalJSON() ([]byte, error) {
	if s.Single {
		if len(s.Releases) != 1 {
			return nil, errors.New("single release set must hold exactly one release")
		}
		return json.Marshal(s.Releases[0])
	}
	if s.Releases == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Releases)
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (s *ReleaseSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var r Release
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return err
		}
		s.Single = true
		s.Releases = []Release{r}
		return nil
	}

	var rs []Release
	if err := json.Unmarshal(trimmed, &rs); err != nil {
		return err
	}
	if rs == nil {
		rs = []Release{}
	}
	s.Single = false
	s.Releases = rs
	return nil
}
