package models

import (
	"path/filepath"
	"strings"
	"time"
)

// EntryType classifies a filesystem node from its raw stat bits.
type EntryType int

const (
	TypeUnknown EntryType = iota
	TypeFile
	TypeDirectory
	TypeLink
	TypeSocket
	TypeFIFO
	TypeBlockDevice
	TypeCharacterDevice
)

// String returns the lowercase name used in query type filters and output.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	case TypeLink:
		return "link"
	case TypeSocket:
		return "socket"
	case TypeFIFO:
		return "fifo"
	case TypeBlockDevice:
		return "blockDevice"
	case TypeCharacterDevice:
		return "characterDevice"
	default:
		return "unknown"
	}
}

// ParseEntryType maps a type-filter name to an EntryType. Unrecognized
// names map to TypeUnknown, which disables the filter.
func ParseEntryType(s string) EntryType {
	switch strings.ToLower(s) {
	case "file":
		return TypeFile
	case "directory", "dir":
		return TypeDirectory
	case "link", "symlink":
		return TypeLink
	case "socket":
		return TypeSocket
	case "fifo":
		return TypeFIFO
	case "blockdevice", "block":
		return TypeBlockDevice
	case "characterdevice", "char":
		return TypeCharacterDevice
	default:
		return TypeUnknown
	}
}

// Timestamps holds the four stat timestamp pairs. Each carries both a
// time.Time and a millisecond-precision numeric in the traversal's
// numeric mode.
type Timestamps struct {
	Access   time.Time
	Modify   time.Time
	Change   time.Time
	Birth    time.Time
	AccessMs Numeric
	ModifyMs Numeric
	ChangeMs Numeric
	BirthMs  Numeric
}

// Stat is the numeric stat metadata of one entry, in the traversal's
// numeric mode.
type Stat struct {
	Dev       Numeric
	Ino       Numeric
	Mode      Numeric
	Nlink     Numeric
	UID       Numeric
	GID       Numeric
	Rdev      Numeric
	Size      Numeric
	BlockSize Numeric
	Blocks    Numeric
	Times     Timestamps
}

// Entry represents one filesystem node plus its traversal-derived
// structure. Entries are immutable once constructed: attaching children
// or a link target produces a new Entry via WithChildren/WithLinkTarget,
// never an in-place mutation.
type Entry struct {
	FullPath   string
	Name       string
	Extension  string
	ParentPath string

	Type EntryType
	Stat Stat

	// Depth is the number of path separators from the filesystem root
	// to this entry.
	Depth int

	// Parent is a weak back-reference; a child never keeps its parent
	// alive for ownership purposes.
	Parent *Entry

	// Children is populated only for directories. nil means the child
	// list was not probed; an empty non-nil slice means the directory
	// was confirmed empty.
	Children []*Entry

	// LinkTarget is the resolved target entry when the walk followed
	// this symbolic link. LinkTargetName is the raw readlink text and
	// is set whenever the entry is a link, followed or not.
	LinkTarget     *Entry
	LinkTargetName string

	Hidden bool

	// Err marks this entry as a placeholder for a failed probe. A
	// placeholder answers false to every type predicate.
	Err error
}

// NewEntry builds an entry from path identity and stat data. The walker
// is the only expected caller.
func NewEntry(fullPath string, typ EntryType, stat Stat) *Entry {
	name := filepath.Base(fullPath)
	return &Entry{
		FullPath:   fullPath,
		Name:       name,
		Extension:  extensionOf(name),
		ParentPath: filepath.Dir(fullPath),
		Type:       typ,
		Stat:       stat,
		Depth:      DepthOf(fullPath),
		Hidden:     IsHidden(name),
	}
}

// NewPlaceholder builds a placeholder entry for a path whose probe
// failed, carrying the error so traversal can continue past it.
func NewPlaceholder(fullPath string, err error) *Entry {
	name := filepath.Base(fullPath)
	return &Entry{
		FullPath:   fullPath,
		Name:       name,
		Extension:  extensionOf(name),
		ParentPath: filepath.Dir(fullPath),
		Type:       TypeUnknown,
		Depth:      DepthOf(fullPath),
		Err:        err,
	}
}

// WithChildren returns a copy of e with the child list attached and each
// child's Parent pointing at the copy. The receiver is not modified.
func (e *Entry) WithChildren(children []*Entry) *Entry {
	clone := *e
	if children == nil {
		children = []*Entry{}
	}
	clone.Children = children
	for _, c := range children {
		c.Parent = &clone
	}
	return &clone
}

// WithLinkTarget returns a copy of e with the resolved link target
// attached. The copy mirrors the target's child list, so a followed
// link to a directory exposes that directory's children directly; the
// children keep the target as their parent. The receiver is not
// modified.
func (e *Entry) WithLinkTarget(target *Entry) *Entry {
	clone := *e
	clone.LinkTarget = target
	if target != nil {
		clone.Children = target.Children
	}
	return &clone
}

// IsPlaceholder reports whether this entry stands in for a failed probe.
func (e *Entry) IsPlaceholder() bool { return e.Err != nil }

// IsFile reports whether the entry is a plain file.
func (e *Entry) IsFile() bool {
	return e.Err == nil && e.Type == TypeFile
}

// IsDirectory reports whether the entry is a directory, or a symbolic
// link whose resolved target is a directory (transparent link
// semantics).
func (e *Entry) IsDirectory() bool {
	if e.Err != nil {
		return false
	}
	if e.Type == TypeDirectory {
		return true
	}
	return e.Type == TypeLink && e.LinkTarget != nil && e.LinkTarget.IsDirectory()
}

// IsSymbolicLink reports whether the entry is a symbolic link. An entry
// that carries a link-target name counts as a link even if its stat bits
// were captured from the target rather than the link itself.
func (e *Entry) IsSymbolicLink() bool {
	if e.Err != nil {
		return false
	}
	return e.Type == TypeLink || e.LinkTargetName != ""
}

// IsSocket reports whether the entry is a unix socket.
func (e *Entry) IsSocket() bool {
	return e.Err == nil && e.Type == TypeSocket
}

// IsFIFO reports whether the entry is a named pipe.
func (e *Entry) IsFIFO() bool {
	return e.Err == nil && e.Type == TypeFIFO
}

// IsBlockDevice reports whether the entry is a block device.
func (e *Entry) IsBlockDevice() bool {
	return e.Err == nil && e.Type == TypeBlockDevice
}

// IsCharacterDevice reports whether the entry is a character device.
func (e *Entry) IsCharacterDevice() bool {
	return e.Err == nil && e.Type == TypeCharacterDevice
}

// IsEmpty reports whether a directory has a confirmed-empty child list
// or a file has zero size. A directory whose children were never probed
// is unknown, not empty, and reports false; use ChildrenKnown to
// distinguish the two.
func (e *Entry) IsEmpty() bool {
	if e.Err != nil {
		return false
	}
	if e.IsDirectory() {
		return e.Children != nil && len(e.Children) == 0
	}
	if e.Type == TypeFile {
		return e.Stat.Size.Cmp(0) == 0
	}
	return false
}

// ChildrenKnown reports whether the child list was probed.
func (e *Entry) ChildrenKnown() bool { return e.Children != nil }

// FlatChildren returns every descendant in pre-order: each child, then
// that child's own descendants. It recomputes on every call and keeps no
// iterator state.
func (e *Entry) FlatChildren() []*Entry {
	var out []*Entry
	for _, c := range e.Children {
		out = append(out, c)
		if c.IsDirectory() {
			out = append(out, c.FlatChildren()...)
		}
	}
	return out
}

// DepthOf counts path separators from the filesystem root to path. The
// root itself has depth zero.
func DepthOf(path string) int {
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == "/" || clean == "." {
		return 0
	}
	clean = strings.TrimSuffix(clean, "/")
	return strings.Count(clean, "/")
}

// IsHidden reports whether a file name is hidden (dotfile convention).
func IsHidden(name string) bool {
	return len(name) > 0 && name[0] == '.' && name != "." && name != ".."
}

func extensionOf(name string) string {
	ext := filepath.Ext(name)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
