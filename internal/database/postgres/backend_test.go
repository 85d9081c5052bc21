package postgres

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/stretchr/testify/require"
)

// fakeServer speaks just enough of the v3 wire protocol to accept
// connections and answer simple queries from a script. Statements that
// have no scripted reply complete with a tag made of their first word.
type fakeServer struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	received []string
	replies  map[string][]pgproto3.BackendMessage
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{
		t:       t,
		ln:      ln,
		replies: map[string][]pgproto3.BackendMessage{},
	}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// reply scripts the messages sent back for the exact statement text.
func (s *fakeServer) reply(sql string, msgs ...pgproto3.BackendMessage) *fakeServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[sql] = msgs
	return s
}

func (s *fakeServer) statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// open dials the server through a real Connector and pgx.
func (s *fakeServer) open() *Session {
	s.t.Helper()

	port := s.ln.Addr().(*net.TCPAddr).Port
	c, err := NewConnector(Options{
		DSN: fmt.Sprintf("postgresql://app@127.0.0.1:%d/shop?sslmode=disable", port),
	})
	require.NoError(s.t, err)

	sess, err := c.Open(context.Background())
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = sess.Close(context.Background()) })
	return sess.(*Session)
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()

	be := pgproto3.NewBackend(conn, conn)
	if _, err := be.ReceiveStartupMessage(); err != nil {
		return
	}
	be.Send(&pgproto3.AuthenticationOk{})
	be.Send(&pgproto3.ParameterStatus{Name: "server_version", Value: "16.4"})
	be.Send(&pgproto3.BackendKeyData{ProcessID: 4242, SecretKey: 1})
	be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	if err := be.Flush(); err != nil {
		return
	}

	for {
		msg, err := be.Receive()
		if err != nil {
			return
		}
		q, ok := msg.(*pgproto3.Query)
		if !ok {
			// Terminate or anything outside the simple protocol.
			return
		}

		for _, m := range s.answer(q.String) {
			be.Send(m)
		}
		be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
		if err := be.Flush(); err != nil {
			return
		}
	}
}

func (s *fakeServer) answer(sql string) []pgproto3.BackendMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, sql)
	if msgs, ok := s.replies[sql]; ok {
		return msgs
	}
	tag := sql
	if words := strings.Fields(sql); len(words) > 0 {
		tag = strings.ToUpper(words[0])
	}
	return []pgproto3.BackendMessage{&pgproto3.CommandComplete{CommandTag: []byte(tag)}}
}

func textField(name string, oid uint32) pgproto3.FieldDescription {
	return pgproto3.FieldDescription{Name: []byte(name), DataTypeOID: oid, DataTypeSize: -1, TypeModifier: -1}
}

// nullCell marks a NULL column in dataRow.
const nullCell = "\x00"

func dataRow(values ...string) *pgproto3.DataRow {
	row := &pgproto3.DataRow{Values: make([][]byte, len(values))}
	for i, v := range values {
		if v != nullCell {
			row.Values[i] = []byte(v)
		}
	}
	return row
}

func complete(tag string) *pgproto3.CommandComplete {
	return &pgproto3.CommandComplete{CommandTag: []byte(tag)}
}
