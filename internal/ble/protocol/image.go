package protocol

// ImagePacket is one bitmap packet as written to the wire.
type ImagePacket []byte

// ChunkImage splits image into ceil(len/chunkSize) bitmap packets. Every
// packet starts with {OpSendBitmap, index}; the first one additionally
// carries BitmapStorageAddress before its data.
//
// The index is a single byte, so images needing more than 256 packets
// reuse indices. Nothing guards against that here.
func ChunkImage(image []byte, chunkSize int) []ImagePacket {
	if len(image) == 0 || chunkSize <= 0 {
		return nil
	}
	packets := make([]ImagePacket, 0, (len(image)+chunkSize-1)/chunkSize)
	for off := 0; off < len(image); off += chunkSize {
		end := off + chunkSize
		if end > len(image) {
			end = len(image)
		}
		index := byte((off / chunkSize) & 0xFF)

		var pkt []byte
		if off == 0 {
			pkt = make([]byte, 0, 2+len(BitmapStorageAddress)+end-off)
			pkt = append(pkt, OpSendBitmap, index)
			pkt = append(pkt, BitmapStorageAddress...)
		} else {
			pkt = make([]byte, 0, 2+end-off)
			pkt = append(pkt, OpSendBitmap, index)
		}
		packets = append(packets, append(pkt, image[off:end]...))
	}
	return packets
}

// CRCFrame builds the checksum-check frame sent after a bitmap transfer.
func CRCFrame(checksum []byte) []byte {
	return append([]byte{OpCRCCheck}, checksum...)
}
