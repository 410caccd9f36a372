package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags records what was done to the raw bytes on load.
	FileFlags uint8 // метаданные загрузки
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	// FileNormalizedCRLF is set when CRLF or lone CR breaks were rewritten to LF.
	FileNormalizedCRLF
	// FileTranscoded marks input that was decoded from UTF-16.
	FileTranscoded
)

// File is one loaded input. Content is always UTF-8 with LF line breaks.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
