package source

// FileID indexes a file inside its FileSet, dense from 0 in load order.
type FileID uint32

// FileFlags records how a file's bytes were produced on load. The fix
// engine uses them to restore the original encoding on write, or to refuse.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // registered from memory, never written back
	FileHadBOM                               // a UTF-8 BOM was stripped
	FileNormalizedCRLF                       // CRLF line ends were folded to LF
	FileDecodedUTF16                         // transcoded from UTF-16
)

// File is one loaded C# source. Content is normalized (no BOM, LF line ends,
// UTF-8); Hash is taken over the normalized bytes and keys the result cache.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position as printed in reports.
type LineCol struct {
	Line uint32
	Col  uint32
}
