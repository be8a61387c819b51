package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeongseonghan/linecode/internal/config"
)

func newTestServer(t *testing.T) (*Server, *Handlers) {
	t.Helper()
	h := NewHandlers(config.Default())
	return NewServer("127.0.0.1:0", h, ""), h
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleEncode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/encode", `{"scheme":"manchester","bits":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)
	assert.Equal(t, "linecode", res.Kind)
	assert.Equal(t, "manchester", res.Scheme)
	assert.Equal(t, "Manchester", res.Title)
	assert.Equal(t, "10", res.Bits)
	assert.Equal(t, 2, res.SamplesPerBit)
	assert.Equal(t, []int{0, 1, 1, 0, 0}, res.Levels)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 2, res.Stats.Transitions)
}

func TestHandleEncode_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{"bad bit", http.MethodPost, `{"scheme":"nrz","bits":"102"}`, http.StatusBadRequest},
		{"empty bits", http.MethodPost, `{"scheme":"nrz","bits":""}`, http.StatusBadRequest},
		{"unknown scheme", http.MethodPost, `{"scheme":"4b5b","bits":"1"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, "/api/encode", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleDecode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/decode", `{"scheme":"ami","levels":[-1,0,1]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "101", out["bits"])
	assert.Equal(t, "ami", out["scheme"])

	rec = do(t, srv, http.MethodPost, "/api/decode", `{"scheme":"nrz","levels":[0,1,1],"padded":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "10", out["bits"])

	// the first mark is always negative
	for _, body := range []string{
		`{"scheme":"ami","levels":[1,0,-1]}`,
		`{"scheme":"ami","levels":[-1,0,-1]}`,
	} {
		rec = do(t, srv, http.MethodPost, "/api/decode", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "bipolar violation", body)
	}
}

func TestHandleSchemes(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/schemes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 5)
	assert.Equal(t, "nrz", out[0]["name"])
	assert.Equal(t, "ami", out[4]["name"])
}

func TestHandleConstellation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/constellation", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []PointPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 8)
	assert.Equal(t, "011", out[3].Symbol)
	assert.Equal(t, 2.0, out[3].Amplitude)
	assert.InDelta(t, math.Pi/2, out[3].Phase, 1e-12)
	assert.InDelta(t, 2.0, out[3].Q, 1e-12)
}

func TestHandleQAM(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/qam", `{"symbols":"001 010"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "qam", res.Kind)
	assert.Equal(t, []string{"001", "010"}, res.Symbols)
	require.NotNil(t, res.StartPhase)
	assert.InDelta(t, math.Pi/2, *res.StartPhase, 1e-12)
	require.Len(t, res.Phases, 2)
	assert.InDelta(t, math.Pi/2, res.Phases[0], 1e-12)
	assert.InDelta(t, math.Pi, res.Phases[1], 1e-12)
	require.Len(t, res.Segments, 2)
	assert.Len(t, res.Segments[0].Samples, 100)
	assert.Equal(t, 2.0, res.Segments[0].Amplitude)
}

func TestHandleQAM_LegacyWithPreamble(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/qam", `{"symbols":"110","startPhaseDeg":0,"preamble":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.StartPhase, "a zero start phase is still reported")
	assert.Equal(t, 0.0, *res.StartPhase)
	assert.Contains(t, rec.Body.String(), `"startPhase":0`)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, "ref", res.Segments[0].Label)
	assert.Equal(t, -1.0, res.Segments[0].Offset)
	assert.Equal(t, 1.0, res.Segments[0].Amplitude)
	assert.Equal(t, "110", res.Segments[1].Label)
	assert.InDelta(t, 3*math.Pi/2, res.Segments[1].Phase, 1e-12)
}

func TestHandleQAM_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/qam", `{"symbols":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/qam", `{"symbols":"1010"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/qam", `{"symbols":"1x1"}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/api/qam", "").Code)
}

func TestHandlePlot(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{"/api/plot/nrzi.svg?bits=0110", http.StatusOK},
		{"/api/plot/diff-manchester.svg", http.StatusOK},
		{"/api/plot/qam.svg?symbols=101,000&preamble=true", http.StatusOK},
		{"/api/plot/qam.svg?startPhaseDeg=0", http.StatusOK},
		{"/api/plot/constellation.svg", http.StatusOK},
		{"/api/plot/nrz.svg?bits=12", http.StatusBadRequest},
		{"/api/plot/qam.svg?startPhaseDeg=abc", http.StatusBadRequest},
		{"/api/plot/qam.svg?startPhaseDeg=90abc", http.StatusBadRequest},
		{"/api/plot/qam.svg?startPhaseDeg=-45.5", http.StatusOK},
		{"/api/plot/unknown.svg", http.StatusBadRequest},
		{"/api/plot/nrz.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, "")
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code == http.StatusOK {
				assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
				assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg "))
			}
		})
	}
}

func TestHandleDemo(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/demo", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var results []RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 6)
	for _, r := range results[:5] {
		assert.Equal(t, "01110010", r.Bits)
	}
	assert.Equal(t, "qam", results[5].Kind)
	assert.Equal(t, "QAM 101110101100011001000111", results[5].Title)
	assert.Len(t, results[5].Symbols, 8)
}

func dialWS(t *testing.T, ts *httptest.Server, h *Handlers) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocket_BroadcastsRenders(t *testing.T) {
	srv, h := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, h)

	resp, err := http.Post(ts.URL+"/api/encode", "application/json",
		bytes.NewBufferString(`{"scheme":"nrzi","bits":"101"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg := readWS(t, conn)
	assert.JSONEq(t, `"render"`, string(msg["type"]))

	var res RenderResult
	require.NoError(t, json.Unmarshal(msg["payload"], &res))
	assert.Equal(t, "nrzi", res.Scheme)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Levels)
}

func TestWebSocket_Commands(t *testing.T) {
	srv, h := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, h)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "qam",
		"payload": map[string]interface{}{"symbols": "111"},
	}))
	msg := readWS(t, conn)
	assert.JSONEq(t, `"render"`, string(msg["type"]))
	var res RenderResult
	require.NoError(t, json.Unmarshal(msg["payload"], &res))
	assert.Equal(t, []string{"111"}, res.Symbols)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "encode",
		"payload": map[string]interface{}{"scheme": "nrz", "bits": "2"},
	}))
	msg = readWS(t, conn)
	assert.JSONEq(t, `"log"`, string(msg["type"]))
	assert.Contains(t, string(msg["payload"]), "invalid input")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "nope"}))
	msg = readWS(t, conn)
	assert.JSONEq(t, `"log"`, string(msg["type"]))
	assert.Contains(t, string(msg["payload"]), "unknown command")
}

func TestWSHub_RemoveClientOnClose(t *testing.T) {
	srv, h := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, h)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Hub().ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
