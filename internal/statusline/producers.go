package statusline

import (
	"strconv"
	"time"
)

// State is the slice of editor state the built-in producers read.
// Implementations return a consistent snapshot per call; producers
// never mutate the editor.
type State interface {
	// CursorPosition returns the 1-indexed line and column of the
	// cursor in the active buffer.
	CursorPosition() (line, col int)

	// MajorMode returns the active buffer's mode name, normally the
	// detected filetype.
	MajorMode() string

	// BufferName returns the active buffer's display name.
	BufferName() string

	// FileDirectory returns the directory of the file backing the
	// active buffer. ok is false for buffers without a file.
	FileDirectory() (dir string, ok bool)

	// Modified reports whether the active buffer has unsaved changes.
	Modified() bool
}

// Info identifies the version-control context of a directory.
type Info struct {
	// Project is the repository name, the base name of its root
	// directory.
	Project string

	// Branch is the checked-out branch, or a short commit hash when
	// HEAD is detached.
	Branch string
}

// BranchProvider supplies version-control information for a directory.
// Absence (ok=false) is the normal answer for paths outside any
// repository and for lookup failures; it is not an error.
type BranchProvider interface {
	BranchInfo(dir string) (Info, bool)
}

// LineNumber produces the cursor's 1-indexed line number.
func LineNumber(s State) Producer {
	return ProducerFunc(func() (string, error) {
		line, _ := s.CursorPosition()
		return strconv.Itoa(line), nil
	})
}

// ColumnNumber produces the cursor's 1-indexed column number.
func ColumnNumber(s State) Producer {
	return ProducerFunc(func() (string, error) {
		_, col := s.CursorPosition()
		return strconv.Itoa(col), nil
	})
}

// BufferName produces the active buffer's display name.
func BufferName(s State) Producer {
	return ProducerFunc(func() (string, error) {
		return s.BufferName(), nil
	})
}

// FileDirectory produces the directory of the active buffer's file,
// absent for buffers without one.
func FileDirectory(s State) Producer {
	return ProducerFunc(func() (string, error) {
		dir, ok := s.FileDirectory()
		if !ok {
			return "", nil
		}
		return dir, nil
	})
}

// ModifiedStar produces "*" while the active buffer has unsaved
// changes, absent otherwise.
func ModifiedStar(s State) Producer {
	return ProducerFunc(func() (string, error) {
		if s.Modified() {
			return "*", nil
		}
		return "", nil
	})
}

// MajorMode produces the active buffer's mode name.
func MajorMode(s State) Producer {
	return ProducerFunc(func() (string, error) {
		return s.MajorMode(), nil
	})
}

// GitBranch produces the checked-out branch for the active buffer's
// directory, absent outside any repository and for file-less buffers.
func GitBranch(s State, vc BranchProvider) Producer {
	return ProducerFunc(func() (string, error) {
		info, ok := branchInfo(s, vc)
		if !ok {
			return "", nil
		}
		return info.Branch, nil
	})
}

// GitProject produces the repository name for the active buffer's
// directory, absent outside any repository and for file-less buffers.
func GitProject(s State, vc BranchProvider) Producer {
	return ProducerFunc(func() (string, error) {
		info, ok := branchInfo(s, vc)
		if !ok {
			return "", nil
		}
		return info.Project, nil
	})
}

func branchInfo(s State, vc BranchProvider) (Info, bool) {
	if vc == nil {
		return Info{}, false
	}
	dir, ok := s.FileDirectory()
	if !ok {
		return Info{}, false
	}
	return vc.BranchInfo(dir)
}

// Clock produces the wall-clock time as HH:MM.
func Clock() Producer {
	return ProducerFunc(func() (string, error) {
		return time.Now().Format("15:04"), nil
	})
}
