package sysuser

type PasswdFile struct {
	entries []PasswdEntry
}

func LoadPasswd(path string) (*PasswdFile, error) {
	lines, err := dataLines(path)
	if err != nil {
		return nil, err
	}
	var pf PasswdFile
	for _, line := range lines {
		parts := parseColonLine(line)
		if len(parts) < 7 {
			// Skip malformed lines; the system tools own repair.
			continue
		}
		uid, err := atoi(parts[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		pf.entries = append(pf.entries, PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		})
	}
	return &pf, nil
}

func (f *PasswdFile) Find(name string) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *PasswdFile) List() []PasswdEntry {
	out := make([]PasswdEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
