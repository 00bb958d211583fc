package wayland

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const headerSize = 8

var order = binary.NativeEndian

// message is one decoded wire message.
type message struct {
	sender uint32
	opcode uint16
	body   []byte
}

// request builds one outgoing message.
type request struct {
	buf []byte
}

func newRequest(sender uint32, opcode uint16) *request {
	req := &request{buf: make([]byte, headerSize, 64)}
	order.PutUint32(req.buf[0:4], sender)
	order.PutUint16(req.buf[4:6], opcode)
	return req
}

func (req *request) putUint(value uint32) *request {
	req.buf = order.AppendUint32(req.buf, value)
	return req
}

func (req *request) putString(value string) *request {
	length := len(value) + 1
	req.buf = order.AppendUint32(req.buf, uint32(length))
	req.buf = append(req.buf, value...)
	req.buf = append(req.buf, make([]byte, padding(length)+1)...)
	return req
}

// bytes finalizes the size field and returns the encoded message.
func (req *request) bytes() []byte {
	order.PutUint16(req.buf[6:8], uint16(len(req.buf)))
	return req.buf
}

func padding(length int) int {
	return (4 - length%4) % 4
}

// parseMessages splits buf into complete messages and returns the unconsumed tail.
func parseMessages(buf []byte) ([]message, []byte, error) {
	var messages []message
	for len(buf) >= headerSize {
		sender := order.Uint32(buf[0:4])
		opcode := order.Uint16(buf[4:6])
		size := int(order.Uint16(buf[6:8]))
		if size < headerSize || size%4 != 0 {
			return nil, nil, errors.Wrapf(ErrProtocol, "bad message size %d from object %d", size, sender)
		}
		if len(buf) < size {
			break
		}
		messages = append(messages, message{sender: sender, opcode: opcode, body: buf[headerSize:size]})
		buf = buf[size:]
	}
	return messages, buf, nil
}

// decoder reads arguments from a message body.
type decoder struct {
	body []byte
	err  error
}

func (dec *decoder) readUint() uint32 {
	if dec.err != nil {
		return 0
	}
	if len(dec.body) < 4 {
		dec.err = errors.Wrap(ErrProtocol, "truncated argument")
		return 0
	}
	value := order.Uint32(dec.body)
	dec.body = dec.body[4:]
	return value
}

func (dec *decoder) readString() string {
	length := int(dec.readUint())
	if dec.err != nil || length == 0 {
		return ""
	}
	padded := length + padding(length)
	if len(dec.body) < padded {
		dec.err = errors.Wrap(ErrProtocol, "truncated string")
		return ""
	}
	value := string(dec.body[:length-1])
	dec.body = dec.body[padded:]
	return value
}
