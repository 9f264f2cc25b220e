//go:build windows

package walker

import (
	"os"
	"syscall"
	"time"

	"github.com/kristianoye/klf-yap/pkg/models"
)

// newStat captures stat data on Windows. The Win32 attribute data only
// carries creation, access and write times; inode-style numerics are
// not available through this API and report zero.
func newStat(info os.FileInfo, mode models.NumericMode) models.Stat {
	num := func(v int64) models.Numeric { return models.NewNumeric(v, mode) }

	mt := info.ModTime()
	atime, ctime, birth := mt, mt, mt
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		atime = time.Unix(0, st.LastAccessTime.Nanoseconds())
		birth = time.Unix(0, st.CreationTime.Nanoseconds())
		ctime = mt
	}

	return models.Stat{
		Dev:       num(0),
		Ino:       num(0),
		Mode:      num(int64(info.Mode())),
		Nlink:     num(0),
		UID:       num(0),
		GID:       num(0),
		Rdev:      num(0),
		Size:      num(info.Size()),
		BlockSize: num(0),
		Blocks:    num(0),
		Times: models.Timestamps{
			Access:   atime,
			Modify:   mt,
			Change:   ctime,
			Birth:    birth,
			AccessMs: num(atime.UnixMilli()),
			ModifyMs: num(mt.UnixMilli()),
			ChangeMs: num(ctime.UnixMilli()),
			BirthMs:  num(birth.UnixMilli()),
		},
	}
}
