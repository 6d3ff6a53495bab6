package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

const frameHeaderSize = 16

// ErrFrameTooLarge is returned by readFrame if the announced payload exceeds the configured maximum
var ErrFrameTooLarge = errors.New("frame too large")

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 8 bytes: data length (uint64, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], requestID)
	binary.BigEndian.PutUint64(header[8:16], uint64(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer.
// If the buffer is too small, the payload is read into a buffer that grows
// with the bytes actually received, so a bogus length can not force a huge allocation.
// A maxSize of 0 accepts frames of any length.
func readFrame(conn io.Reader, buf []byte, maxSize uint64) (uint64, []byte, error) {
	// Check if buffer is large enough for header
	if len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:frameHeaderSize]); err != nil {
		return 0, nil, err
	}

	// Parse header
	requestID := binary.BigEndian.Uint64(buf[:8])
	contentLength := binary.BigEndian.Uint64(buf[8:16])

	if maxSize > 0 && contentLength > maxSize {
		return requestID, nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, contentLength, maxSize)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return requestID, []byte{}, nil
	}

	// Case payload fits into the buffer
	if contentLength <= uint64(len(buf)) {
		if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
			return 0, nil, unexpectedEOF(err)
		}
		return requestID, buf[:contentLength], nil
	}

	// Case large payload
	if contentLength > uint64(1<<62) {
		return requestID, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, contentLength)
	}
	var large bytes.Buffer
	if _, err := io.CopyN(&large, conn, int64(contentLength)); err != nil {
		return 0, nil, unexpectedEOF(err)
	}
	return requestID, large.Bytes(), nil
}

// unexpectedEOF converts an io.EOF in the middle of a frame into io.ErrUnexpectedEOF
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
