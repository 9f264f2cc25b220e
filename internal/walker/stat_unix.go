//go:build !windows

package walker

import (
	"os"
	"syscall"
	"time"

	"github.com/kristianoye/klf-yap/pkg/models"
)

// newStat captures the full raw stat data of an entry in the walk's
// numeric mode. Unix exposes no birth time through Stat_t, so birth
// falls back to the inode change time.
func newStat(info os.FileInfo, mode models.NumericMode) models.Stat {
	num := func(v int64) models.Numeric { return models.NewNumeric(v, mode) }

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		// Synthetic FileInfo (tests, virtual filesystems): size and
		// mtime are all we have.
		mt := info.ModTime()
		return models.Stat{
			Mode:      num(int64(info.Mode())),
			Size:      num(info.Size()),
			Dev:       num(0),
			Ino:       num(0),
			Nlink:     num(0),
			UID:       num(0),
			GID:       num(0),
			Rdev:      num(0),
			BlockSize: num(0),
			Blocks:    num(0),
			Times: models.Timestamps{
				Access: mt, Modify: mt, Change: mt, Birth: mt,
				AccessMs: num(mt.UnixMilli()),
				ModifyMs: num(mt.UnixMilli()),
				ChangeMs: num(mt.UnixMilli()),
				BirthMs:  num(mt.UnixMilli()),
			},
		}
	}

	atime := time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
	mtime := time.Unix(int64(st.Mtim.Sec), int64(st.Mtim.Nsec))
	ctime := time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	birth := ctime

	return models.Stat{
		Dev:       num(int64(st.Dev)),
		Ino:       num(int64(st.Ino)),
		Mode:      num(int64(st.Mode)),
		Nlink:     num(int64(st.Nlink)),
		UID:       num(int64(st.Uid)),
		GID:       num(int64(st.Gid)),
		Rdev:      num(int64(st.Rdev)),
		Size:      num(st.Size),
		BlockSize: num(int64(st.Blksize)),
		Blocks:    num(int64(st.Blocks)),
		Times: models.Timestamps{
			Access:   atime,
			Modify:   mtime,
			Change:   ctime,
			Birth:    birth,
			AccessMs: num(atime.UnixMilli()),
			ModifyMs: num(mtime.UnixMilli()),
			ChangeMs: num(ctime.UnixMilli()),
			BirthMs:  num(birth.UnixMilli()),
		},
	}
}
