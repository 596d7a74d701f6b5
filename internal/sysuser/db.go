package sysuser

import (
	"errors"

	"github.com/acfs-dev/hostprep/internal/hostfs"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
)

// adminGroups are probed in order; Debian-family hosts have "sudo",
// RHEL-family hosts have "wheel".
var adminGroups = []string{"sudo", "wheel"}

// DB locates the three account databases on the host.
type DB struct {
	PasswdPath string
	ShadowPath string
	GroupPath  string
}

func NewDB(fs *hostfs.FS) (*DB, error) {
	passwd, err := fs.Path("etc/passwd")
	if err != nil {
		return nil, err
	}
	shadow, err := fs.Path("etc/shadow")
	if err != nil {
		return nil, err
	}
	group, err := fs.Path("etc/group")
	if err != nil {
		return nil, err
	}
	return &DB{PasswdPath: passwd, ShadowPath: shadow, GroupPath: group}, nil
}

// Lookup returns the passwd entry for username or ErrUserNotFound.
func (db *DB) Lookup(username string) (*PasswdEntry, error) {
	pw, err := LoadPasswd(db.PasswdPath)
	if err != nil {
		return nil, err
	}
	pe := pw.Find(username)
	if pe == nil {
		return nil, ErrUserNotFound
	}
	return pe, nil
}

// Exists reports account existence; I/O errors are not existence answers and
// are returned as errors.
func (db *DB) Exists(username string) (bool, error) {
	_, err := db.Lookup(username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (db *DB) GroupExists(name string) (bool, error) {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return false, err
	}
	return gr.Find(name) != nil, nil
}

func (db *DB) IsMember(group, username string) (bool, error) {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return false, err
	}
	g := gr.Find(group)
	if g == nil {
		return false, ErrGroupNotFound
	}
	for _, m := range g.Members {
		if m == username {
			return true, nil
		}
	}
	return false, nil
}

func (db *DB) Members(group string) ([]string, error) {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return nil, err
	}
	g := gr.Find(group)
	if g == nil {
		return nil, ErrGroupNotFound
	}
	out := make([]string, len(g.Members))
	copy(out, g.Members)
	return out, nil
}

// AdminGroup returns the host's administrative group, or "" when neither
// sudo nor wheel exists.
func (db *DB) AdminGroup() (string, error) {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return "", err
	}
	for _, name := range adminGroups {
		if gr.Find(name) != nil {
			return name, nil
		}
	}
	return "", nil
}

// HasPassword reports whether username's shadow entry carries a usable hash.
// A missing shadow entry counts as no password.
func (db *DB) HasPassword(username string) (bool, error) {
	sh, err := LoadShadow(db.ShadowPath)
	if err != nil {
		return false, err
	}
	return sh.Find(username).Usable(), nil
}
