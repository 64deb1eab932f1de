package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/analyzer"
	"go.uber.org/zap"
)

const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Data    any    `json:"data,omitempty"`
}

type progressData struct {
	Stage      analyzer.Stage `json:"stage"`
	URL        string         `json:"url"`
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Similarity *float64       `json:"similarity,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.Logger
}

func (c *wsConn) send(msgType, content string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(Message{Type: msgType, Content: content, Data: data}); err != nil {
		c.log.Debug("websocket write failed", zap.Error(err))
	}
}

// handleWebSocket runs one analysis per request message received.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsConn{conn: conn, log: s.log}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			cancel()
			return
		}

		req, err := s.decodeRequest(bytes.NewReader(message))
		if err != nil {
			ws.send(MessageError, err.Error(), nil)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.streamAnalysis(ctx, ws, req)
		}()
	}
}

func (s *Server) streamAnalysis(ctx context.Context, ws *wsConn, req models.AnalysisRequest) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := s.analyzer.Analyze(ctx, req, func(e analyzer.Event) {
		ws.send(MessageProgress, describe(e), toProgressData(e))
	})
	if err != nil {
		ws.send(MessageError, err.Error(), nil)
		return
	}
	ws.send(MessageResult, "analysis complete", resp)
}

func describe(e analyzer.Event) string {
	switch e.Stage {
	case analyzer.StageTarget:
		if e.Err != nil {
			return fmt.Sprintf("target page failed: %s", e.URL)
		}
		return fmt.Sprintf("target page embedded: %s", e.URL)
	case analyzer.StageCompetitor:
		if e.Err != nil {
			return fmt.Sprintf("competitor %d/%d failed: %s", e.Index+1, e.Total, e.URL)
		}
		return fmt.Sprintf("competitor %d/%d compared: %s", e.Index+1, e.Total, e.URL)
	case analyzer.StageKeyword:
		return "keyword expansion ready"
	default:
		return "analysis finished"
	}
}

func toProgressData(e analyzer.Event) progressData {
	d := progressData{Stage: e.Stage, URL: e.URL, Index: e.Index, Total: e.Total}
	if e.Err != nil {
		d.Error = e.Err.Error()
	} else if e.Stage == analyzer.StageCompetitor {
		sim := e.Similarity
		d.Similarity = &sim
	}
	return d
}
