package sources

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arrayops/remotearray/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize bounds a single telemetry frame. A full ArrayReading encodes
// to well under a kilobyte; anything larger is a corrupt length prefix or a
// stray client speaking the wrong protocol.
const MaxFrameSize = 64 * 1024

// frameHeaderSize is the big-endian uint32 length prefix on every frame
const frameHeaderSize = 4

// EncodeFrame renders a reading as a length-prefixed msgpack frame.
func EncodeFrame(r *types.ArrayReading) ([]byte, error) {
	body, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("error encoding reading: %v", err)
	}

	frame := make([]byte, frameHeaderSize+len(body))
	binary.BigEndian.PutUint32(frame[:frameHeaderSize], uint32(len(body)))
	copy(frame[frameHeaderSize:], body)
	return frame, nil
}

// DecodeFrameBody unpacks a frame body that has already been split from its
// length prefix.
func DecodeFrameBody(body []byte) (*types.ArrayReading, error) {
	var r types.ArrayReading
	if err := msgpack.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("error decoding reading: %v", err)
	}
	return &r, nil
}

// WriteFrame writes a reading to w as a length-prefixed msgpack frame.
func WriteFrame(w io.Writer, r *types.ArrayReading) error {
	frame, err := EncodeFrame(r)
	if err != nil {
		return err
	}

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("error writing frame: %v", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed msgpack frame from r. It blocks until
// a full frame arrives or the reader fails.
func ReadFrame(r io.Reader) (*types.ArrayReading, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("error reading frame body: %v", err)
	}

	return DecodeFrameBody(body)
}
