package transport

import (
	"context"
	"net"
	"time"

	"xchain-bridge/core"
)

// DefaultCallTimeout bounds how long Call waits for a reply before giving
// up; the relayer retries on its own cadence, so this just keeps one stuck
// socket from blocking a dispatch round forever.
const DefaultCallTimeout = 5 * time.Second

// Call sends req to addr and waits for exactly one reply. Each call opens a
// fresh ephemeral UDP socket dedicated to this request, which trivially
// guarantees the reply observed belongs to the most recent request issued
// on it (spec.md §4.7's single-flight requirement) — there is no older
// in-flight request sharing the socket to be confused with.
func Call(ctx context.Context, addr string, req Message) (Message, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "resolve "+addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "dial "+addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(DefaultCallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "set deadline", err)
	}

	out, err := Encode(req)
	if err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "encode request", err)
	}
	if _, err := conn.Write(out); err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "write request", err)
	}

	buf := make([]byte, MaxDatagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		return Message{}, core.WrapError(core.ErrCommunicationError, "read reply from "+addr, err)
	}
	reply, err := Decode(buf[:n])
	if err != nil {
		return Message{}, core.WrapError(core.ErrInvalidDecoding, "reply from "+addr, err)
	}
	return reply, nil
}

// Send transmits msg to addr and does not wait for a reply, for the two
// fire-and-forget variants (certificate propagation, cross-shard updates).
func Send(ctx context.Context, addr string, msg Message) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return core.WrapError(core.ErrCommunicationError, "resolve "+addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return core.WrapError(core.ErrCommunicationError, "dial "+addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	out, err := Encode(msg)
	if err != nil {
		return core.WrapError(core.ErrCommunicationError, "encode message", err)
	}
	if _, err := conn.Write(out); err != nil {
		return core.WrapError(core.ErrCommunicationError, "write to "+addr, err)
	}
	return nil
}
