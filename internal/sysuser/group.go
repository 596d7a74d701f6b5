package sysuser

import (
	"sort"
	"strings"
)

type GroupFile struct {
	entries []GroupEntry
}

func LoadGroup(path string) (*GroupFile, error) {
	lines, err := dataLines(path)
	if err != nil {
		return nil, err
	}
	var gf GroupFile
	for _, line := range lines {
		parts := parseColonLine(line)
		if len(parts) < 4 {
			continue
		}
		gid, err := atoi(parts[2], "group.gid")
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		gf.entries = append(gf.entries, GroupEntry{
			Name:    parts[0],
			Passwd:  parts[1],
			GID:     gid,
			Members: members,
		})
	}
	return &gf, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *GroupFile) List() []GroupEntry {
	out := make([]GroupEntry, len(f.entries))
	copy(out, f.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].GID < out[j].GID })
	return out
}

// MemberOf returns the names of all groups that list user as a supplementary
// member, in file order.
func (f *GroupFile) MemberOf(user string) []string {
	var out []string
	for i := range f.entries {
		for _, m := range f.entries[i].Members {
			if m == user {
				out = append(out, f.entries[i].Name)
				break
			}
		}
	}
	return out
}
