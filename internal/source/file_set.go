package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet keeps the files a checker reads. Re-loading a path after an
// autofix write produces a new FileID; GetLatest always points at the newest
// version, older IDs keep their content.
type FileSet struct {
	files []File
	index map[string]FileID // path -> newest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]FileID)}
}

// Len returns the number of stored file versions.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores a file from bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	// Всегда обновляем индекс на последнюю версию файла
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// LoadRaw reads a file from disk without any normalisation.
// Offsets of the resulting File match the bytes on disk exactly.
func (fileSet *FileSet) LoadRaw(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.Add(path, content, FileRaw), nil
}

// Reload loads path raw again and reports whether its bytes differ from the
// previous version. The first load of a path always counts as changed.
func (fileSet *FileSet) Reload(path string) (FileID, bool, error) {
	prev, seen := fileSet.GetByPath(path)
	var before [32]byte
	if seen {
		before = prev.Hash
	}
	id, err := fileSet.LoadRaw(path)
	if err != nil {
		return 0, false, err
	}
	return id, !seen || fileSet.files[id].Hash != before, nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual|FileRaw)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath возвращает последнюю версию *File по пути, если был загружен в этот FileSet.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// LineCount returns the number of lines; a trailing newline does not open a new line.
func (f *File) LineCount() int {
	n := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// LineBounds returns the byte range [start, end) of line (1-based), end excludes '\n'.
func (f *File) LineBounds(line int) (start, end int, ok bool) {
	if line < 1 || line > f.LineCount() {
		return 0, 0, false
	}
	if line > 1 {
		start = int(f.LineIdx[line-2]) + 1
	}
	if line-1 < len(f.LineIdx) {
		end = int(f.LineIdx[line-1])
	} else {
		end = len(f.Content)
	}
	return start, end, true
}

// LineStart returns the offset of the first byte of line; for line past the end it is len(Content).
func (f *File) LineStart(line int) int {
	if start, _, ok := f.LineBounds(line); ok {
		return start
	}
	if line < 1 {
		return 0
	}
	return len(f.Content)
}

// OffsetLine returns the 1-based line containing off.
func (f *File) OffsetLine(off int) int {
	u, err := safecast.Conv[uint32](off)
	if err != nil {
		return f.LineCount()
	}
	return int(toLineCol(f.LineIdx, u).Line)
}

// GetLine возвращает строку с заданным номером (1-based) из файла без '\n'.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum int) string {
	start, end, ok := f.LineBounds(lineNum)
	if !ok {
		return ""
	}
	return string(f.Content[start:end])
}
