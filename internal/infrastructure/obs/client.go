package obs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errClosedByClient = errors.New("connection closed by client")

// Config holds obs-websocket connection settings
type Config struct {
	Address        string // host:port
	Password       string
	RequestTimeout time.Duration
}

// Client is an obs-websocket v5 client. Connect replaces the current
// session; requests are safe for concurrent use.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.SugaredLogger

	mu   sync.Mutex
	sess *session
}

// session is one authenticated websocket connection
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan requestResponse

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// NewClient creates a client; no connection is made until Connect
func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Second
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Subprotocols:     []string{subprotocol},
			HandshakeTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Connect dials OBS and performs the Hello/Identify handshake, closing any
// previous session first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		c.sess.shutdown(errClosedByClient)
		c.sess = nil
	}

	u := url.URL{Scheme: "ws", Host: c.cfg.Address}
	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u.String(), err)
	}

	if err := c.handshake(ctx, conn); err != nil {
		conn.Close()
		return err
	}

	s := &session{
		conn:    conn,
		pending: make(map[string]chan requestResponse),
		done:    make(chan struct{}),
	}
	go s.readLoop(c.logger)
	c.sess = s
	return nil
}

func (c *Client) handshake(ctx context.Context, conn *websocket.Conn) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
		defer func() {
			_ = conn.SetReadDeadline(time.Time{})
			_ = conn.SetWriteDeadline(time.Time{})
		}()
	}

	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if msg.Op != opHello {
		return fmt.Errorf("expected hello (op %d), got op %d", opHello, msg.Op)
	}
	var h hello
	if err := json.Unmarshal(msg.D, &h); err != nil {
		return fmt.Errorf("failed to decode hello: %w", err)
	}

	id := identify{RPCVersion: rpcVersion}
	if h.Authentication != nil {
		if c.cfg.Password == "" {
			return errors.New("obs-websocket requires authentication but no password is configured")
		}
		id.Authentication = authResponse(c.cfg.Password, h.Authentication.Salt, h.Authentication.Challenge)
	}

	out, err := encode(opIdentify, id)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(out); err != nil {
		return fmt.Errorf("failed to send identify: %w", err)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		// OBS closes the socket with code 4009 on a bad password
		return fmt.Errorf("identify rejected: %w", err)
	}
	if msg.Op != opIdentified {
		return fmt.Errorf("expected identified (op %d), got op %d", opIdentified, msg.Op)
	}
	var ack identified
	if err := json.Unmarshal(msg.D, &ack); err != nil {
		return fmt.Errorf("failed to decode identified: %w", err)
	}

	c.logger.Debugw("obs-websocket identified",
		"obs_websocket_version", h.OBSWebSocketVersion,
		"rpc_version", ack.NegotiatedRPCVersion,
	)
	return nil
}

// Connected reports whether the current session is still open
func (c *Client) Connected() bool {
	s := c.current()
	return s != nil && !s.closed()
}

// Close closes the current session
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return nil
	}
	s := c.sess
	c.sess = nil

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	s.shutdown(errClosedByClient)
	return nil
}

// ListSceneItems returns the items of sceneName
func (c *Client) ListSceneItems(ctx context.Context, sceneName string) ([]domain.SceneItem, error) {
	var resp struct {
		SceneItems []domain.SceneItem `json:"sceneItems"`
	}
	err := c.call(ctx, "GetSceneItemList", sceneName, map[string]interface{}{
		"sceneName": sceneName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.SceneItems, nil
}

// SetSceneItemEnabled shows or hides one scene item
func (c *Client) SetSceneItemEnabled(ctx context.Context, sceneName string, sceneItemID int64, enabled bool) error {
	return c.call(ctx, "SetSceneItemEnabled", sceneName, map[string]interface{}{
		"sceneName":        sceneName,
		"sceneItemId":      sceneItemID,
		"sceneItemEnabled": enabled,
	}, nil)
}

func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Client) call(ctx context.Context, requestType, sceneName string, data interface{}, out interface{}) error {
	s := c.current()
	if s == nil || s.closed() {
		return domain.ErrNotConnected
	}

	ctx, span := tracing.TraceOBSRequest(ctx, requestType, sceneName)
	defer span.End()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	ch := s.register(id)
	defer s.unregister(id)

	msg, err := encode(opRequest, request{RequestType: requestType, RequestID: id, RequestData: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", requestType, err)
	}
	if err := s.write(ctx, msg); err != nil {
		s.shutdown(err)
		tracing.RecordError(ctx, err)
		return fmt.Errorf("failed to send %s: %w", requestType, err)
	}

	select {
	case resp := <-ch:
		if !resp.RequestStatus.Result {
			err := fmt.Errorf("%w: %s returned code %d: %s", domain.ErrRequestFailed,
				requestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
			tracing.RecordError(ctx, err)
			return err
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("failed to decode %s response: %w", requestType, err)
			}
		}
		return nil
	case <-s.done:
		return fmt.Errorf("%w: %v", domain.ErrNotConnected, s.err)
	case <-ctx.Done():
		tracing.RecordError(ctx, ctx.Err())
		return fmt.Errorf("%s: %w", requestType, ctx.Err())
	}
}

func (s *session) write(ctx context.Context, msg message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	return s.conn.WriteJSON(msg)
}

func (s *session) register(id string) chan requestResponse {
	ch := make(chan requestResponse, 1)
	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()
	return ch
}

func (s *session) unregister(id string) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

func (s *session) readLoop(logger *zap.SugaredLogger) {
	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.closed() {
				logger.Debugw("obs-websocket read failed", "error", err)
			}
			s.shutdown(err)
			return
		}

		switch msg.Op {
		case opRequestResponse:
			var resp requestResponse
			if err := json.Unmarshal(msg.D, &resp); err != nil {
				logger.Warnw("failed to decode obs-websocket response", "error", err)
				continue
			}
			s.pendingMu.Lock()
			ch, ok := s.pending[resp.RequestID]
			s.pendingMu.Unlock()
			if ok {
				select {
				case ch <- resp:
				default:
				}
			}
		case opEvent:
			// no subscriptions are requested
		default:
			logger.Debugw("ignoring obs-websocket message", "op", msg.Op)
		}
	}
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *session) shutdown(err error) {
	s.closeOnce.Do(func() {
		s.err = err
		close(s.done)
		s.conn.Close()
	})
}
