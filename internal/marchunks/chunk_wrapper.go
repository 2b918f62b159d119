package marchunks

import (
	"encoding/binary"
	"errors"
)

// chunkWrapperMagic identifies a wrapped chunk so several can be
// concatenated into one file. This framing is memfaultd-local: strip it
// before handing chunks to the Memfault chunks endpoint.
var chunkWrapperMagic = [4]byte{'C', 'H', 'N', 'K'}

var (
	errShortWrapperHeader = errors.New("marchunks: truncated chunk wrapper header")
	errBadWrapperMagic    = errors.New("marchunks: bad chunk wrapper magic")
	errShortWrapperBody   = errors.New("marchunks: truncated wrapped chunk body")
)

// WrapChunk prefixes chunk with the 4-byte "CHNK" magic and its 4-byte
// big-endian length, so multiple chunks can be concatenated unambiguously.
func WrapChunk(chunk []byte) []byte {
	out := make([]byte, 0, 8+len(chunk))
	out = append(out, chunkWrapperMagic[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(chunk)))
	out = append(out, chunk...)
	return out
}

// UnwrapChunks splits a concatenated stream of wrapped chunks back into
// their individual chunk byte slices.
func UnwrapChunks(data []byte) ([][]byte, error) {
	var chunks [][]byte
	for len(data) > 0 {
		if len(data) < 8 {
			return nil, errShortWrapperHeader
		}
		if string(data[:4]) != string(chunkWrapperMagic[:]) {
			return nil, errBadWrapperMagic
		}
		length := binary.BigEndian.Uint32(data[4:8])
		data = data[8:]
		if uint32(len(data)) < length {
			return nil, errShortWrapperBody
		}
		chunks = append(chunks, data[:length])
		data = data[length:]
	}
	return chunks, nil
}
