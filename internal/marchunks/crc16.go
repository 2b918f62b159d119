package marchunks

// CRC16XModem computes the CRC-16/XMODEM checksum of data: poly 0x1021,
// initial value 0, no input or output reflection. No library in the
// retrieved example pack implements this particular (unreflected) CRC-16
// variant — only CRC-32/CRC-64 flavors turn up anywhere in the corpus — so
// it is hand-rolled here rather than imported.
func CRC16XModem(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
