package normalize

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// fakeRunner records every operation so tests can assert on exactly which
// host mutations a step performed.
type fakeRunner struct {
	calls []string

	files map[string][]byte
	modes map[string]os.FileMode

	// stat answers: path -> exists. Written files exist implicitly.
	statable map[string]bool

	// fail injects an error for the named operation.
	fail map[string]error

	lookPaths map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		files:     map[string][]byte{},
		modes:     map[string]os.FileMode{},
		statable:  map[string]bool{},
		fail:      map[string]error{},
		lookPaths: map[string]string{},
	}
}

func (f *fakeRunner) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRunner) errFor(op string) error { return f.fail[op] }

func (f *fakeRunner) Useradd(_ context.Context, username, shell string) error {
	f.record("useradd %s shell=%s", username, shell)
	return f.errFor("useradd")
}

func (f *fakeRunner) UsermodAppendGroup(_ context.Context, username, group string) error {
	f.record("usermod -aG %s %s", group, username)
	return f.errFor("usermod")
}

func (f *fakeRunner) ChpasswdEncrypted(_ context.Context, username, hash string) error {
	f.record("chpasswd %s hash=%s", username, hash)
	return f.errFor("chpasswd")
}

func (f *fakeRunner) Chsh(_ context.Context, username, shell string) error {
	f.record("chsh -s %s %s", shell, username)
	return f.errFor("chsh")
}

func (f *fakeRunner) VisudoCheck(_ context.Context, path string) error {
	f.record("visudo -cf %s", path)
	return f.errFor("visudo")
}

func (f *fakeRunner) WriteFile(_ context.Context, path string, data []byte, mode os.FileMode) error {
	f.record("write %s mode=%o", path, mode)
	if err := f.errFor("write"); err != nil {
		return err
	}
	f.files[path] = data
	f.modes[path] = mode
	return nil
}

func (f *fakeRunner) Remove(_ context.Context, path string) error {
	f.record("rm %s", path)
	if err := f.errFor("rm"); err != nil {
		return err
	}
	delete(f.files, path)
	delete(f.modes, path)
	return nil
}

func (f *fakeRunner) MkdirAll(_ context.Context, path string, mode os.FileMode) error {
	f.record("mkdir -p %s mode=%o", path, mode)
	if err := f.errFor("mkdir"); err != nil {
		return err
	}
	f.modes[path] = mode
	return nil
}

func (f *fakeRunner) CopyFile(_ context.Context, src, dst string) error {
	f.record("cp %s %s", src, dst)
	if err := f.errFor("cp"); err != nil {
		return err
	}
	f.files[dst] = f.files[src]
	return nil
}

func (f *fakeRunner) Chmod(_ context.Context, path string, mode os.FileMode) error {
	f.record("chmod %o %s", mode, path)
	if err := f.errFor("chmod"); err != nil {
		return err
	}
	f.modes[path] = mode
	return nil
}

func (f *fakeRunner) ChownRecursive(_ context.Context, path, owner string) error {
	f.record("chown -R %s:%s %s", owner, owner, path)
	return f.errFor("chown")
}

func (f *fakeRunner) CheckExecutable(path string) error {
	if err := f.errFor("checkexec"); err != nil {
		return err
	}
	if !f.statable[path] {
		return fmt.Errorf("%s: no such file", path)
	}
	return nil
}

func (f *fakeRunner) ReadFile(path string) ([]byte, error) {
	if b, ok := f.files[path]; ok {
		return b, nil
	}
	return nil, fs.ErrNotExist
}

func (f *fakeRunner) Stat(path string) (os.FileInfo, error) {
	if f.statable[path] {
		return fakeFileInfo{name: path}, nil
	}
	if _, ok := f.files[path]; ok {
		return fakeFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.lookPaths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: executable not found", name)
}

type fakeFileInfo struct{ name string }

func (fi fakeFileInfo) Name() string       { return fi.name }
func (fi fakeFileInfo) Size() int64        { return 0 }
func (fi fakeFileInfo) Mode() os.FileMode  { return 0644 }
func (fi fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeFileInfo) IsDir() bool        { return false }
func (fi fakeFileInfo) Sys() interface{}   { return nil }
