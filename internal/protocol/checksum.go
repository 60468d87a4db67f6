// internal/protocol/checksum.go
package protocol

// CRC16 computes the Modbus RTU CRC (poly 0xA001, init 0xFFFF) over data.
// The low byte is transmitted first on the wire.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc >>= 1
				crc ^= 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// checksum is the V5 frame checksum: the byte sum of everything between
// the start byte and the checksum byte itself.
func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
