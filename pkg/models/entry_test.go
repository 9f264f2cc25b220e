package models

import (
	"errors"
	"testing"
)

func fileEntry(path string, size int64) *Entry {
	stat := Stat{Size: NewNumeric(size, NumberMode)}
	return NewEntry(path, TypeFile, stat)
}

func dirEntry(path string) *Entry {
	return NewEntry(path, TypeDirectory, Stat{})
}

func TestTypePredicatesExclusive(t *testing.T) {
	tests := []struct {
		name string
		typ  EntryType
		want func(*Entry) bool
	}{
		{"file", TypeFile, (*Entry).IsFile},
		{"directory", TypeDirectory, (*Entry).IsDirectory},
		{"link", TypeLink, (*Entry).IsSymbolicLink},
		{"socket", TypeSocket, (*Entry).IsSocket},
		{"fifo", TypeFIFO, (*Entry).IsFIFO},
		{"block device", TypeBlockDevice, (*Entry).IsBlockDevice},
		{"character device", TypeCharacterDevice, (*Entry).IsCharacterDevice},
	}

	predicates := []func(*Entry) bool{
		(*Entry).IsFile,
		(*Entry).IsDirectory,
		(*Entry).IsSymbolicLink,
		(*Entry).IsSocket,
		(*Entry).IsFIFO,
		(*Entry).IsBlockDevice,
		(*Entry).IsCharacterDevice,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry("/x/node", tt.typ, Stat{})
			trueCount := 0
			for _, p := range predicates {
				if p(e) {
					trueCount++
				}
			}
			if trueCount != 1 {
				t.Errorf("%d predicates true, want exactly 1", trueCount)
			}
			if !tt.want(e) {
				t.Errorf("expected predicate false for type %v", tt.typ)
			}
		})
	}
}

func TestLinkToDirectoryIsBoth(t *testing.T) {
	target := dirEntry("/data/real")
	link := NewEntry("/data/link", TypeLink, Stat{})
	link.LinkTargetName = "real"
	link = link.WithLinkTarget(target)

	if !link.IsSymbolicLink() {
		t.Error("link to directory should still be a symbolic link")
	}
	if !link.IsDirectory() {
		t.Error("link to directory should report IsDirectory (transparent link semantics)")
	}
	if link.IsFile() {
		t.Error("link to directory should not be a file")
	}
}

func TestLinkIdentityFromTargetName(t *testing.T) {
	// A link entry whose stat bits were captured from the target still
	// counts as a link when a target name is present.
	e := NewEntry("/data/link", TypeFile, Stat{})
	e.LinkTargetName = "elsewhere"
	if !e.IsSymbolicLink() {
		t.Error("entry with a link-target name should report IsSymbolicLink")
	}
}

func TestPlaceholderPredicates(t *testing.T) {
	p := NewPlaceholder("/gone/away", errors.New("permission denied"))
	if !p.IsPlaceholder() {
		t.Fatal("expected placeholder")
	}
	for name, pred := range map[string]func() bool{
		"IsFile":            p.IsFile,
		"IsDirectory":       p.IsDirectory,
		"IsSymbolicLink":    p.IsSymbolicLink,
		"IsSocket":          p.IsSocket,
		"IsFIFO":            p.IsFIFO,
		"IsBlockDevice":     p.IsBlockDevice,
		"IsCharacterDevice": p.IsCharacterDevice,
		"IsEmpty":           p.IsEmpty,
	} {
		if pred() {
			t.Errorf("%s should be false on a placeholder", name)
		}
	}
	if p.Err == nil {
		t.Error("placeholder must carry its error")
	}
}

func TestIsEmpty(t *testing.T) {
	unknown := dirEntry("/d")
	if unknown.IsEmpty() {
		t.Error("directory with unprobed children is unknown, not empty")
	}
	if unknown.ChildrenKnown() {
		t.Error("unprobed directory should not report known children")
	}

	empty := dirEntry("/d").WithChildren([]*Entry{})
	if !empty.IsEmpty() {
		t.Error("directory with confirmed-empty children should be empty")
	}
	if !empty.ChildrenKnown() {
		t.Error("confirmed-empty directory should report known children")
	}

	full := dirEntry("/d").WithChildren([]*Entry{fileEntry("/d/f", 1)})
	if full.IsEmpty() {
		t.Error("directory with children is not empty")
	}

	if !fileEntry("/f", 0).IsEmpty() {
		t.Error("zero-size file should be empty")
	}
	if fileEntry("/f", 10).IsEmpty() {
		t.Error("non-empty file should not be empty")
	}
}

func TestWithChildrenImmutable(t *testing.T) {
	orig := dirEntry("/d")
	child := fileEntry("/d/f", 1)
	updated := orig.WithChildren([]*Entry{child})

	if orig.Children != nil {
		t.Error("WithChildren must not mutate the receiver")
	}
	if len(updated.Children) != 1 {
		t.Fatalf("updated entry has %d children, want 1", len(updated.Children))
	}
	if child.Parent != updated {
		t.Error("child's parent should point at the updated entry")
	}
}

func TestFlatChildrenPreOrder(t *testing.T) {
	//  /r
	//    a/
	//      x.txt
	//    b.txt
	x := fileEntry("/r/a/x.txt", 1)
	a := dirEntry("/r/a").WithChildren([]*Entry{x})
	b := fileEntry("/r/b.txt", 2)
	r := dirEntry("/r").WithChildren([]*Entry{a, b})

	flat := r.FlatChildren()
	wantPaths := []string{"/r/a", "/r/a/x.txt", "/r/b.txt"}
	if len(flat) != len(wantPaths) {
		t.Fatalf("FlatChildren returned %d entries, want %d", len(flat), len(wantPaths))
	}
	for i, want := range wantPaths {
		if flat[i].FullPath != want {
			t.Errorf("flat[%d] = %s, want %s", i, flat[i].FullPath, want)
		}
	}

	// Restartable: a second call recomputes the same result.
	again := r.FlatChildren()
	if len(again) != len(flat) {
		t.Errorf("second FlatChildren call returned %d entries, want %d", len(again), len(flat))
	}
}

func TestDepthOf(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"/", 0},
		{"/a", 1},
		{"/a/b", 2},
		{"/a/b/c.txt", 3},
		{"/a/b/", 2},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DepthOf(tt.path); got != tt.want {
				t.Errorf("DepthOf(%q) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestEntryIdentity(t *testing.T) {
	e := fileEntry("/var/log/app.log", 10)
	if e.Name != "app.log" {
		t.Errorf("Name = %q, want app.log", e.Name)
	}
	if e.Extension != "log" {
		t.Errorf("Extension = %q, want log", e.Extension)
	}
	if e.ParentPath != "/var/log" {
		t.Errorf("ParentPath = %q, want /var/log", e.ParentPath)
	}
	if e.Depth != 3 {
		t.Errorf("Depth = %d, want 3", e.Depth)
	}
	if e.Hidden {
		t.Error("app.log should not be hidden")
	}

	h := fileEntry("/home/u/.bashrc", 1)
	if !h.Hidden {
		t.Error(".bashrc should be hidden")
	}
}
