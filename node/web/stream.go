/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jjos2372/signum-jminer/node/round"
)

const (
	wsBuffRead     = 1024
	wsBuffWrite    = 1024
	wsMsgSizeLimit = 4 * 1024

	wsHeartbeatInterval = 30 * time.Second
	wsWriteTimeout      = 10 * time.Second
	wsReadTimeout       = 10 * time.Second

	// records queued per subscriber before new ones are dropped
	subscriberBuffer = 256
)

var wsBufferPool = new(sync.Pool)

// StreamRecord is the wire form of a round.Record
type StreamRecord struct {
	Time  time.Time `json:"time"`
	Level string    `json:"level"`
	Group string    `json:"group"`
	Topic string    `json:"topic"`
	Block uint64    `json:"block"`
	Msg   string    `json:"msg"`
	Data  any       `json:"data,omitempty"`
}

// Stream is a round.Sink pushing every record to the websocket clients
// of /records. Slow clients lose records instead of blocking the
// coordinator.
type Stream struct {
	lock     *sync.RWMutex
	logf     func(string)
	subs     map[chan []byte]struct{}
	upgrader websocket.Upgrader
}

var _ round.Sink = (*Stream)(nil)

// NewStream accepts browser clients from allowedOrigins. Origin
// decisions are reported through logf, which may be nil.
func NewStream(allowedOrigins []string, logf func(string)) *Stream {
	if logf == nil {
		logf = func(string) {}
	}
	return &Stream{
		lock: new(sync.RWMutex),
		logf: logf,
		subs: make(map[chan []byte]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsBuffRead,
			WriteBufferSize: wsBuffWrite,
			WriteBufferPool: wsBufferPool,
			CheckOrigin:     wsHandshakeValidator(allowedOrigins, logf),
		},
	}
}

func (s *Stream) RegisterRoutes(server *gin.Engine) {
	server.GET("/records", s.serveRecords)
}

func (s *Stream) Emit(rec round.Record) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if len(s.subs) == 0 {
		return
	}
	msg, err := json.Marshal(StreamRecord{
		Time:  rec.Time,
		Level: rec.Level.String(),
		Group: rec.Group.String(),
		Topic: rec.Topic,
		Block: rec.Block,
		Msg:   rec.Msg,
		Data:  rec.Data,
	})
	if err != nil {
		return
	}
	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of connected clients
func (s *Stream) Subscribers() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.subs)
}

func (s *Stream) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	s.lock.Lock()
	s.subs[ch] = struct{}{}
	s.lock.Unlock()
	return ch
}

func (s *Stream) unsubscribe(ch chan []byte) {
	s.lock.Lock()
	delete(s.subs, ch)
	s.lock.Unlock()
}

func (s *Stream) serveRecords(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logf(fmt.Sprintf("upgrade /records: %v", err))
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	conn.SetReadLimit(wsMsgSizeLimit)
	conn.SetReadDeadline(time.Now().Add(wsHeartbeatInterval + wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsHeartbeatInterval + wsReadTimeout))
		return nil
	})

	// the client only talks to close the connection
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsHeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func wsHandshakeValidator(allowedOrigins []string, logf func(string)) func(*http.Request) bool {
	origins := mapset.NewSet()
	allowAllOrigins := false

	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAllOrigins = true
		}
		if origin != "" {
			origins.Add(strings.ToLower(origin))
		}
	}
	// allow localhost if no allowedOrigins are specified.
	if origins.Cardinality() == 0 {
		origins.Add("http://localhost")
		if hostname, err := os.Hostname(); err == nil {
			origins.Add("http://" + strings.ToLower(hostname))
		}
	}
	logf(fmt.Sprintf("allowed origin(s) for /records %v", origins.ToSlice()))

	return func(req *http.Request) bool {
		// non-browser clients send no Origin
		if _, ok := req.Header["Origin"]; !ok {
			return true
		}
		origin := strings.ToLower(req.Header.Get("Origin"))
		if allowAllOrigins || originIsAllowed(origins, origin, logf) {
			return true
		}
		logf(fmt.Sprintf("rejected websocket connection from origin '%s'", origin))
		return false
	}
}

func originIsAllowed(allowedOrigins mapset.Set, browserOrigin string, logf func(string)) bool {
	for _, origin := range allowedOrigins.ToSlice() {
		if ruleAllowsOrigin(origin.(string), browserOrigin, logf) {
			return true
		}
	}
	return false
}

// ruleAllowsOrigin matches scheme, host and port; parts missing from
// the rule match anything
func ruleAllowsOrigin(allowedOrigin string, browserOrigin string, logf func(string)) bool {
	allowedScheme, allowedHostname, allowedPort, err := parseOriginURL(allowedOrigin)
	if err != nil {
		logf(fmt.Sprintf("error parsing allowed origin '%s': %v", allowedOrigin, err))
		return false
	}
	browserScheme, browserHostname, browserPort, err := parseOriginURL(browserOrigin)
	if err != nil {
		logf(fmt.Sprintf("error parsing browser origin '%s': %v", browserOrigin, err))
		return false
	}
	if allowedScheme != "" && allowedScheme != browserScheme {
		return false
	}
	if allowedHostname != "" && allowedHostname != browserHostname {
		return false
	}
	if allowedPort != "" && allowedPort != browserPort {
		return false
	}
	return true
}

func parseOriginURL(origin string) (string, string, string, error) {
	parsedURL, err := url.Parse(strings.ToLower(origin))
	if err != nil {
		return "", "", "", err
	}
	var scheme, hostname, port string
	if strings.Contains(origin, "://") {
		scheme = parsedURL.Scheme
		hostname = parsedURL.Hostname()
		port = parsedURL.Port()
	} else {
		hostname = parsedURL.Scheme
		port = parsedURL.Opaque
		if hostname == "" {
			hostname = origin
		}
	}
	return scheme, hostname, port, nil
}
