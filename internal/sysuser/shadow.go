package sysuser

import "strings"

type ShadowFile struct {
	entries []ShadowEntry
}

func LoadShadow(path string) (*ShadowFile, error) {
	lines, err := dataLines(path)
	if err != nil {
		return nil, err
	}
	var sf ShadowFile
	for _, line := range lines {
		parts := parseColonLine(line)
		if len(parts) < 2 {
			continue
		}
		for len(parts) < 9 {
			parts = append(parts, "")
		}
		sf.entries = append(sf.entries, ShadowEntry{
			Name:       parts[0],
			Hash:       parts[1],
			LastChange: parts[2],
			Min:        parts[3],
			Max:        parts[4],
			Warn:       parts[5],
			Inactive:   parts[6],
			Expire:     parts[7],
			Reserved:   parts[8],
		})
	}
	return &sf, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

// Usable reports whether the entry carries a hash that can authenticate:
// empty, "!", "*" and locked ("!...") hashes cannot.
func (e *ShadowEntry) Usable() bool {
	if e == nil {
		return false
	}
	h := e.Hash
	return h != "" && !strings.HasPrefix(h, "!") && !strings.HasPrefix(h, "*")
}
