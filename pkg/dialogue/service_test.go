package dialogue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/protocol"
)

// fakeService answers each detect_intent with handle.
func fakeService(t *testing.T, handle func(conn *websocket.Conn, req *protocol.DetectIntentRequest)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil || msg.Type != protocol.TypeDetectIntent {
				continue
			}
			var req protocol.DetectIntentRequest
			msg.ParseData(&req)
			handle(conn, &req)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func writeMsg(t *testing.T, conn *websocket.Conn, msg *protocol.Message, err error) {
	if err != nil {
		t.Errorf("build message: %v", err)
		return
	}
	data, _ := msg.Bytes()
	conn.WriteMessage(websocket.TextMessage, data)
}

func TestService_DetectIntent(t *testing.T) {
	url := fakeService(t, func(conn *websocket.Conn, req *protocol.DetectIntentRequest) {
		m, err := protocol.NewRecognitionMessage("I am", false)
		writeMsg(t, conn, m, err)
		m, err = protocol.NewRecognitionMessage("I am tired", true)
		writeMsg(t, conn, m, err)
		m, err = protocol.NewQueryResultMessage(protocol.QueryResultData{
			SessionID:   req.SessionID,
			Intent:      "small_talk.user.tired",
			Confidence:  intent.Confidence(0.8),
			Transcript:  "I am tired",
			Fulfillment: "Take a break.",
		})
		writeMsg(t, conn, m, err)
	})

	s, err := DialService(context.Background(), WithServiceURL(url))
	if err != nil {
		t.Fatalf("DialService: %v", err)
	}
	defer s.Close()

	ev, err := s.DetectIntent(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("DetectIntent: %v", err)
	}
	if ev.Intent != "small_talk.user.tired" || ev.ConfidenceString() != "0.80" {
		t.Errorf("event = %+v", ev)
	}
	if ev.FulfillmentMessage != "Take a break." {
		t.Errorf("fulfillment = %q", ev.FulfillmentMessage)
	}

	// Recognition messages precede the result on the same connection.
	var got []intent.Notice
	for len(got) < 2 {
		select {
		case n := <-s.Notices():
			got = append(got, n)
		case <-time.After(time.Second):
			t.Fatalf("notices = %+v", got)
		}
	}
	if got[0].Final || !got[1].Final || got[1].Transcript != "I am tired" {
		t.Errorf("notices = %+v", got)
	}
}

func TestService_IgnoresOtherSessions(t *testing.T) {
	url := fakeService(t, func(conn *websocket.Conn, req *protocol.DetectIntentRequest) {
		m, err := protocol.NewQueryResultMessage(protocol.QueryResultData{SessionID: "stale", Intent: "bye"})
		writeMsg(t, conn, m, err)
		m, err = protocol.NewQueryResultMessage(protocol.QueryResultData{SessionID: req.SessionID, Intent: "ready"})
		writeMsg(t, conn, m, err)
	})

	s, err := DialService(context.Background(), WithServiceURL(url))
	if err != nil {
		t.Fatalf("DialService: %v", err)
	}
	defer s.Close()

	ev, err := s.DetectIntent(context.Background(), "s-1")
	if err != nil || ev.Intent != "ready" {
		t.Errorf("event = %+v, %v", ev, err)
	}
}

func TestService_ErrorResult(t *testing.T) {
	url := fakeService(t, func(conn *websocket.Conn, req *protocol.DetectIntentRequest) {
		m, err := protocol.NewErrorMessage("unavailable", "recognizer offline")
		writeMsg(t, conn, m, err)
	})

	s, err := DialService(context.Background(), WithServiceURL(url))
	if err != nil {
		t.Fatalf("DialService: %v", err)
	}
	defer s.Close()

	_, err = s.DetectIntent(context.Background(), "s-1")
	if err == nil || !strings.Contains(err.Error(), "recognizer offline") {
		t.Errorf("err = %v", err)
	}
}

func TestService_ConnectionLost(t *testing.T) {
	url := fakeService(t, func(conn *websocket.Conn, req *protocol.DetectIntentRequest) {
		conn.Close()
	})

	s, err := DialService(context.Background(), WithServiceURL(url))
	if err != nil {
		t.Fatalf("DialService: %v", err)
	}
	defer s.Close()

	_, err = s.DetectIntent(context.Background(), "s-1")
	if !intent.IsClosed(err) {
		t.Errorf("err = %v, want ErrBackendClosed", err)
	}
}

func TestService_Timeout(t *testing.T) {
	url := fakeService(t, func(conn *websocket.Conn, req *protocol.DetectIntentRequest) {})

	s, err := DialService(context.Background(), WithServiceURL(url), WithRequestTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("DialService: %v", err)
	}
	defer s.Close()

	if _, err := s.DetectIntent(context.Background(), "s-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

func TestDialService_Errors(t *testing.T) {
	if _, err := DialService(context.Background()); !errors.Is(err, ErrMissingURL) {
		t.Errorf("missing url: %v", err)
	}
	if _, err := DialService(context.Background(), WithServiceURL("ws://127.0.0.1:1/nope")); err == nil {
		t.Error("expected dial error")
	}
}
