package inmemory

import (
	"log/slog"
	"sync"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/connection"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

// repo maps live connections to member ids both ways. A member id is
// connection-scoped: it disappears with the connection.
type repo struct {
	connList map[wsconn.Conn]string
	idList   map[string]wsconn.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[wsconn.Conn]string),
		idList:   make(map[string]wsconn.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn wsconn.Conn, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.Add", "member_id", memberId)
	if r.connList[conn] != "" || r.idList[memberId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = memberId
	r.idList[memberId] = conn

	return nil
}

func (r *repo) RemoveByMemberId(memberId string) (wsconn.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.RemoveByMemberId", "member_id", memberId)
	conn, ok := r.idList[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, memberId)

	return conn, nil
}

func (r *repo) RemoveByConn(conn wsconn.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.RemoveByConn")
	memberId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, memberId)

	return memberId, nil
}

func (r *repo) GetConn(memberId string) (wsconn.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetMemberId(conn wsconn.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return memberId, nil
}
