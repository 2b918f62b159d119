package coredump

import "strings"

// EncodeLogNote renders the lines captured during this invocation (see
// internal/coredump/logcapture) as the Memfault log-capture note.
func EncodeLogNote(lines []string) []byte {
	return EncodeNote(MemfaultNoteName, MemfaultLogNoteType, []byte(strings.Join(lines, "\n")))
}
