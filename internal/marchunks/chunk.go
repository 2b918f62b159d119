package marchunks

import "fmt"

// crc16Length is the width, in bytes, of the trailing CRC appended to a
// chunk.
const crc16Length = 2

// EncodeChunk wraps payload in a single Memfault chunk: a one-byte header,
// a one-byte message type, the payload, then a little-endian CRC-16/XMODEM
// computed over the message-type byte and payload together.
func EncodeChunk(messageType MessageType, payload []byte) []byte {
	message := encodeMessage(messageType, payload)
	crc := CRC16XModem(message)

	out := make([]byte, 0, 1+len(message)+crc16Length)
	out = append(out, singleChunkHeaderByte())
	out = append(out, message...)
	out = append(out, byte(crc), byte(crc>>8))
	return out
}

// DecodeChunk reverses EncodeChunk, verifying the header byte and the
// trailing CRC. It only understands single-chunk, deferred-CRC messages.
func DecodeChunk(chunk []byte) (MessageType, []byte, error) {
	const minLength = 1 /* header */ + 1 /* message type */ + crc16Length
	if len(chunk) < minLength {
		return 0, nil, fmt.Errorf("marchunks: chunk too short (%d bytes)", len(chunk))
	}

	if chunk[0] != singleChunkHeaderByte() {
		return 0, nil, fmt.Errorf("marchunks: unsupported chunk header byte 0x%02x", chunk[0])
	}

	message := chunk[1 : len(chunk)-crc16Length]
	gotCRC := uint16(chunk[len(chunk)-2]) | uint16(chunk[len(chunk)-1])<<8
	wantCRC := CRC16XModem(message)
	if gotCRC != wantCRC {
		return 0, nil, fmt.Errorf("marchunks: CRC mismatch: got 0x%04x, want 0x%04x", gotCRC, wantCRC)
	}

	return MessageType(message[0]), message[1:], nil
}
