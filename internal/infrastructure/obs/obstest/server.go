// Package obstest provides an in-process obs-websocket v5 server for tests.
package obstest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"srtalert/internal/core/domain"

	"github.com/gorilla/websocket"
)

const (
	Challenge = "test-challenge"
	Salt      = "test-salt"
)

// Toggle is one SetSceneItemEnabled call seen by the server
type Toggle struct {
	SceneName   string
	SceneItemID int64
	Enabled     bool
}

// Server fakes the parts of OBS the monitor talks to
type Server struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	password string

	mu          sync.Mutex
	scenes      map[string][]domain.SceneItem
	toggles     []Toggle
	listCalls   int
	connections int
	conns       []*websocket.Conn
}

// NewServer starts a server requiring password (empty disables auth)
func NewServer(password string) *Server {
	s := &Server{
		password: password,
		scenes:   make(map[string][]domain.SceneItem),
		upgrader: websocket.Upgrader{Subprotocols: []string{"obswebsocket.json"}},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Address returns host:port of the server
func (s *Server) Address() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
}

// Close stops the server
func (s *Server) Close() {
	s.DropConnections()
	s.srv.Close()
}

// SetScene replaces the items of a scene
func (s *Server) SetScene(name string, items ...domain.SceneItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[name] = items
}

// DropConnections closes every open client connection
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// Toggles returns the SetSceneItemEnabled calls received so far
func (s *Server) Toggles() []Toggle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toggle(nil), s.toggles...)
}

// ListCalls returns how many GetSceneItemList requests were served
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// Connections returns how many clients completed the handshake
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

type frame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	hello := map[string]interface{}{"obsWebSocketVersion": "5.4.2", "rpcVersion": 1}
	if s.password != "" {
		hello["authentication"] = map[string]string{"challenge": Challenge, "salt": Salt}
	}
	if err := write(conn, 0, hello); err != nil {
		return
	}

	var f frame
	if err := conn.ReadJSON(&f); err != nil || f.Op != 1 {
		return
	}
	var ident struct {
		Authentication string `json:"authentication"`
	}
	_ = json.Unmarshal(f.D, &ident)
	if s.password != "" && ident.Authentication != expectedAuth(s.password) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(4009, "Authentication failed."))
		return
	}
	if err := write(conn, 2, map[string]int{"negotiatedRpcVersion": 1}); err != nil {
		return
	}

	s.mu.Lock()
	s.connections++
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Op != 6 {
			continue
		}
		var req struct {
			RequestType string          `json:"requestType"`
			RequestID   string          `json:"requestId"`
			RequestData json.RawMessage `json:"requestData"`
		}
		if err := json.Unmarshal(f.D, &req); err != nil {
			return
		}
		if err := write(conn, 7, s.respond(req.RequestType, req.RequestID, req.RequestData)); err != nil {
			return
		}
	}
}

func (s *Server) respond(requestType, id string, data json.RawMessage) map[string]interface{} {
	resp := map[string]interface{}{
		"requestType":   requestType,
		"requestId":     id,
		"requestStatus": map[string]interface{}{"result": true, "code": 100},
	}
	fail := func(code int, comment string) map[string]interface{} {
		resp["requestStatus"] = map[string]interface{}{"result": false, "code": code, "comment": comment}
		return resp
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch requestType {
	case "GetSceneItemList":
		var in struct {
			SceneName string `json:"sceneName"`
		}
		_ = json.Unmarshal(data, &in)
		s.listCalls++
		items, ok := s.scenes[in.SceneName]
		if !ok {
			return fail(600, "No source was found by the name of `"+in.SceneName+"`.")
		}
		resp["responseData"] = map[string]interface{}{"sceneItems": items}
	case "SetSceneItemEnabled":
		var in struct {
			SceneName        string `json:"sceneName"`
			SceneItemID      int64  `json:"sceneItemId"`
			SceneItemEnabled bool   `json:"sceneItemEnabled"`
		}
		_ = json.Unmarshal(data, &in)
		found := false
		for _, it := range s.scenes[in.SceneName] {
			if it.SceneItemID == in.SceneItemID {
				found = true
			}
		}
		if !found {
			return fail(600, "No scene items were found in the specified scene by that ID.")
		}
		s.toggles = append(s.toggles, Toggle{SceneName: in.SceneName, SceneItemID: in.SceneItemID, Enabled: in.SceneItemEnabled})
	default:
		return fail(204, "Your request type is not valid.")
	}
	return resp
}

func write(conn *websocket.Conn, op int, d interface{}) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return conn.WriteJSON(frame{Op: op, D: raw})
}

func expectedAuth(password string) string {
	secret := sha256.Sum256([]byte(password + Salt))
	auth := sha256.Sum256([]byte(base64.StdEncoding.EncodeToString(secret[:]) + Challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}
