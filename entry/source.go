package entry

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"gitlab.com/tinyland/lab/pulse-status/linebuf"
	"gitlab.com/tinyland/lab/pulse-status/pipeline"
)

// reserve is held back in every raw buffer for the terminator.
const reserve = 1

// Raw buffer capacities per source kind, terminator included.
const (
	loadavgSize = 64
	psiSize     = 128
	meminfoSize = 1536
	batterySize = 32
)

// Source is an open pseudo-file together with its raw read buffer. A source
// is shared by every entry that reads the same file.
type Source struct {
	Path string
	File *os.File
	Buf  *linebuf.Buffer

	consumers []int
	feeds     []*pipeline.Pipeline
}

// fileKey identifies a file independent of the path used to open it.
type fileKey struct {
	dev uint64
	ino uint64
}

func statKey(f *os.File) (fileKey, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return fileKey{}, fmt.Errorf("entry: fstat %s: %w", f.Name(), err)
	}
	return fileKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// Fd returns the descriptor used for positional reads.
func (s *Source) Fd() int {
	return int(s.File.Fd())
}

// Prepare resets the raw buffer for a new round and returns the window a
// read may fill. One byte stays reserved for the terminator.
func (s *Source) Prepare() []byte {
	s.Buf.Reset(reserve)
	return s.Buf.Spare()
}

// Consumers returns the indices of the entries fed by this source. Inputs of
// derived entries are not included.
func (s *Source) Consumers() []int {
	return s.consumers
}
