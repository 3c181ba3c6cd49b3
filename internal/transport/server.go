package transport

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"xchain-bridge/core"
)

// ShardServer listens on one UDP socket for one shard of one authority and
// dispatches each datagram to the authority replica (spec.md §4.7). The
// transport itself is best-effort: a dropped or reordered datagram is the
// relayer's problem, not this server's, because every handler it calls is
// idempotent.
type ShardServer struct {
	shardID ShardId
	conn    *net.UDPConn
	replica *core.BridgeAuthorityState
	log     *logrus.Entry
}

// ShardId is re-exported for callers that only import transport.
type ShardId = core.ShardId

// NewShardServer binds addr ("host:port") for shardID and returns a server
// ready to Serve.
func NewShardServer(addr string, shardID ShardId, replica *core.BridgeAuthorityState, log *logrus.Entry) (*ShardServer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigurationError, "resolve "+addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigurationError, "listen "+addr, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ShardServer{
		shardID: shardID,
		conn:    conn,
		replica: replica,
		log:     log.WithField("shard", shardID),
	}, nil
}

// LocalAddr returns the bound UDP address, useful in tests that bind ":0".
func (s *ShardServer) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close releases the UDP socket.
func (s *ShardServer) Close() error { return s.conn.Close() }

// Serve reads datagrams until ctx is cancelled or the socket closes.
func (s *ShardServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return core.WrapError(core.ErrCommunicationError, "read datagram", err)
		}
		raw := append([]byte(nil), buf[:n]...)
		go s.handle(ctx, raw, remote)
	}
}

func (s *ShardServer) handle(ctx context.Context, raw []byte, remote *net.UDPAddr) {
	msg, err := Decode(raw)
	if err != nil {
		s.log.WithError(err).WithField("remote", remote).Debug("dropping undecodable datagram")
		return
	}

	var reply *Message
	switch msg.Kind {
	case KindTransferOrder:
		signed, err := s.replica.HandleOrder(ctx, msg.TransferOrder, s.shardID)
		if err != nil {
			m := ErrorMessage(err.Error())
			reply = &m
			break
		}
		m := SignedTransferOrderMessage(signed)
		reply = &m

	case KindCertifiedTransferOrder:
		if err := s.replica.PropagateCertifiedTransfer(msg.CertifiedTransferOrder); err != nil {
			s.log.WithError(err).Warn("certificate propagation rejected")
		}
		// No reply per spec.md §4.7.

	case KindCrossShardUpdate:
		if err := s.replica.HandleCrossShardUpdate(msg.CrossShardUpdate); err != nil {
			s.log.WithError(err).Warn("cross-shard update rejected")
		}
		// No reply per spec.md §4.7.

	default:
		s.log.WithField("kind", msg.Kind).Debug("dropping unexpected variant")
	}

	if reply == nil {
		return
	}
	out, err := Encode(*reply)
	if err != nil {
		s.log.WithError(err).Error("encode reply")
		return
	}
	if _, err := s.conn.WriteToUDP(out, remote); err != nil {
		s.log.WithError(err).WithField("remote", remote).Warn("send reply")
	}
}

// RunShardConsumer starts the cross-shard bus consumer for this shard's
// authority. It should be started once per authority (not per shard
// server), since the bus is shared by every shard the authority manages.
func RunShardConsumer(ctx context.Context, replica *core.BridgeAuthorityState, log *logrus.Entry) {
	core.RunCrossShardConsumer(ctx, replica.Bus(), log, replica.HandleCrossShardUpdate)
}
