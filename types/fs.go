package types

import (
	"io/fs"
	"os"
)

// FS is the read side of go-vfs that diskplan needs, so callers can pass
// vfs.OSFS on a host or a vfst test filesystem in tests.
type FS interface {
	Open(name string) (fs.File, error)
	Stat(name string) (os.FileInfo, error)
	ReadFile(filename string) ([]byte, error)
	ReadDir(dirname string) ([]fs.DirEntry, error)
	RawPath(name string) (string, error)
}
