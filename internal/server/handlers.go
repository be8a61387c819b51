package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jeongseonghan/linecode/internal/config"
	"github.com/jeongseonghan/linecode/internal/modem"
	"github.com/jeongseonghan/linecode/internal/render"
)

// EncodeRequest asks for a line-code render.
type EncodeRequest struct {
	Scheme string `json:"scheme"`
	Bits   string `json:"bits"`
}

// DecodeRequest asks for the bits behind an unpadded level sequence.
type DecodeRequest struct {
	Scheme string `json:"scheme"`
	Levels []int  `json:"levels"`
	Padded bool   `json:"padded"`
}

// QAMRequest asks for a QAM waveform render. A nil StartPhaseDeg selects the
// configured default.
type QAMRequest struct {
	Symbols       string   `json:"symbols"`
	StartPhaseDeg *float64 `json:"startPhaseDeg,omitempty"`
	Preamble      bool     `json:"preamble"`
}

// SegmentPayload is one baud of a rendered waveform.
type SegmentPayload struct {
	Label     string         `json:"label"`
	Offset    float64        `json:"offset"`
	Amplitude float64        `json:"amplitude"`
	Phase     float64        `json:"phase"`
	Preamble  bool           `json:"preamble"`
	Samples   []modem.Sample `json:"samples"`
}

// RenderResult is the payload returned by the API and pushed over WebSocket.
type RenderResult struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"` // "linecode" or "qam"
	Title string `json:"title"`

	Scheme        string       `json:"scheme,omitempty"`
	Bits          string       `json:"bits,omitempty"`
	SamplesPerBit int          `json:"samplesPerBit,omitempty"`
	Levels        []int        `json:"levels,omitempty"`
	Stats         *modem.Stats `json:"stats,omitempty"`

	Symbols    []string         `json:"symbols,omitempty"`
	StartPhase *float64         `json:"startPhase,omitempty"` // set for every qam render, zero included
	Preamble   bool             `json:"preamble,omitempty"`
	Phases     []float64        `json:"phases,omitempty"`
	Segments   []SegmentPayload `json:"segments,omitempty"`
}

// PointPayload is one constellation entry.
type PointPayload struct {
	Symbol    string  `json:"symbol"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
	I         float64 `json:"i"`
	Q         float64 `json:"q"`
}

// Handlers holds the HTTP API handlers.
type Handlers struct {
	cfg   *config.Config
	wsHub *WSHub
}

// NewHandlers creates new API handlers.
func NewHandlers(cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handlers{
		cfg:   cfg,
		wsHub: NewWSHub(),
	}
}

// Hub returns the WebSocket hub.
func (h *Handlers) Hub() *WSHub {
	return h.wsHub
}

// RenderLineCode encodes bits with a scheme.
func (h *Handlers) RenderLineCode(req EncodeRequest) (*RenderResult, error) {
	scheme, err := modem.ParseScheme(req.Scheme)
	if err != nil {
		return nil, err
	}
	bits, err := modem.ParseBits(req.Bits)
	if err != nil {
		return nil, err
	}
	levels, err := modem.Encode(scheme, bits)
	if err != nil {
		return nil, err
	}
	stats := modem.Analyze(levels[:len(levels)-1])

	return &RenderResult{
		ID:            uuid.New().String(),
		Kind:          "linecode",
		Title:         scheme.String(),
		Scheme:        scheme.Name(),
		Bits:          modem.FormatBits(bits),
		SamplesPerBit: scheme.SamplesPerBit(),
		Levels:        levels,
		Stats:         &stats,
	}, nil
}

// RenderQAM modulates a symbol stream.
func (h *Handlers) RenderQAM(req QAMRequest) (*RenderResult, error) {
	res, _, err := h.modulate(req)
	return res, err
}

func (h *Handlers) modulate(req QAMRequest) (*RenderResult, *modem.Waveform, error) {
	symbols, err := modem.ParseSymbols(req.Symbols)
	if err != nil {
		return nil, nil, err
	}

	wc := h.cfg.WaveformConfig()
	if req.StartPhaseDeg != nil {
		if math.IsNaN(*req.StartPhaseDeg) || math.IsInf(*req.StartPhaseDeg, 0) {
			return nil, nil, fmt.Errorf("%w: start phase %v", modem.ErrInvalidInput, *req.StartPhaseDeg)
		}
		wc.StartPhase = config.DegToRad(*req.StartPhaseDeg)
	}
	wc.Preamble = req.Preamble

	wf, err := modem.NewModulator(nil, wc).Modulate(symbols)
	if err != nil {
		return nil, nil, err
	}

	res := &RenderResult{
		ID:         uuid.New().String(),
		Kind:       "qam",
		Title:      "QAM " + modem.FormatSymbols(symbols),
		StartPhase: &wc.StartPhase,
		Preamble:   wc.Preamble,
		Phases:     wf.Phases(),
	}
	for _, s := range symbols {
		res.Symbols = append(res.Symbols, s.String())
	}
	for i := range wf.Segments {
		seg := &wf.Segments[i]
		res.Segments = append(res.Segments, SegmentPayload{
			Label:     seg.Label(),
			Offset:    seg.Offset,
			Amplitude: seg.Amplitude,
			Phase:     seg.Phase,
			Preamble:  seg.Preamble,
			Samples:   seg.Samples,
		})
	}
	return res, wf, nil
}

// HandleWebSocket handles WebSocket upgrade requests. Clients may send
// {"type":"encode"|"qam","payload":{...}}; results are broadcast to every
// client.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.wsHub.AddClient(conn)

	go func() {
		defer h.wsHub.RemoveClient(conn)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			h.handleWSCommand(data)
		}
	}()
}

func (h *Handlers) handleWSCommand(data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		h.wsHub.BroadcastLog("error", fmt.Sprintf("Parse command: %v", err))
		return
	}

	var (
		res *RenderResult
		err error
	)
	switch msg.Type {
	case "encode":
		var req EncodeRequest
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			res, err = h.RenderLineCode(req)
		}
	case "qam":
		var req QAMRequest
		if err = json.Unmarshal(msg.Payload, &req); err == nil {
			res, err = h.RenderQAM(req)
		}
	default:
		err = fmt.Errorf("unknown command %q", msg.Type)
	}
	if err != nil {
		h.wsHub.BroadcastLog("error", err.Error())
		return
	}
	h.wsHub.BroadcastRender(res)
}

// HandleSchemes lists the supported line codes.
func (h *Handlers) HandleSchemes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var out []map[string]interface{}
	for _, s := range modem.Schemes() {
		out = append(out, map[string]interface{}{
			"name":          s.Name(),
			"title":         s.String(),
			"samplesPerBit": s.SamplesPerBit(),
		})
	}
	writeJSON(w, out)
}

// HandleEncode renders a line code.
func (h *Handlers) HandleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}

	res, err := h.RenderLineCode(req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.wsHub.BroadcastRender(res)
	writeJSON(w, res)
}

// HandleDecode recovers bits from levels.
func (h *Handlers) HandleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}

	scheme, err := modem.ParseScheme(req.Scheme)
	if err != nil {
		writeError(w, err)
		return
	}
	decode := modem.Decode
	if req.Padded {
		decode = modem.DecodePadded
	}
	bits, err := decode(scheme, req.Levels)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{
		"id":     uuid.New().String(),
		"scheme": scheme.Name(),
		"bits":   modem.FormatBits(bits),
	})
}

// HandleConstellation returns the QAM constellation table.
func (h *Handlers) HandleConstellation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	points := modem.DefaultConstellation().Points()
	out := make([]PointPayload, len(points))
	for idx, p := range points {
		iq := p.IQ()
		out[idx] = PointPayload{
			Symbol:    modem.SymbolFromIndex(idx).String(),
			Amplitude: p.Amplitude,
			Phase:     p.Phase,
			I:         real(iq),
			Q:         imag(iq),
		}
	}
	writeJSON(w, out)
}

// HandleQAM renders a QAM waveform.
func (h *Handlers) HandleQAM(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QAMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}

	res, err := h.RenderQAM(req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.wsHub.BroadcastRender(res)
	writeJSON(w, res)
}

// HandleDemo renders every configured scenario and pushes them to clients.
func (h *Handlers) HandleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	schemes, err := h.cfg.Schemes()
	if err != nil {
		writeError(w, err)
		return
	}

	var results []*RenderResult
	for _, s := range schemes {
		res, err := h.RenderLineCode(EncodeRequest{Scheme: s.Name(), Bits: h.cfg.LineCode.Bits})
		if err != nil {
			writeError(w, err)
			return
		}
		results = append(results, res)
	}

	deg := h.cfg.QAM.StartPhaseDeg
	res, err := h.RenderQAM(QAMRequest{
		Symbols:       strings.Join(h.cfg.QAM.Symbols, " "),
		StartPhaseDeg: &deg,
		Preamble:      h.cfg.QAM.Preamble,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	results = append(results, res)

	for _, res := range results {
		h.wsHub.BroadcastRender(res)
	}
	writeJSON(w, results)
}

// HandlePlot serves SVG plots: /api/plot/{scheme}.svg?bits=...,
// /api/plot/qam.svg?symbols=...&startPhaseDeg=...&preamble=true and
// /api/plot/constellation.svg.
func (h *Handlers) HandlePlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/plot/")
	if !strings.HasSuffix(name, ".svg") {
		http.Error(w, "Plot must end in .svg", http.StatusNotFound)
		return
	}
	name = strings.TrimSuffix(name, ".svg")
	q := r.URL.Query()

	var doc string
	switch name {
	case "constellation":
		doc = render.ConstellationSVG(modem.DefaultConstellation(), render.Options{Title: "QAM Constellation"})

	case "qam":
		req := QAMRequest{Symbols: q.Get("symbols"), Preamble: q.Get("preamble") == "true"}
		if req.Symbols == "" {
			req.Symbols = strings.Join(h.cfg.QAM.Symbols, " ")
		}
		if v := q.Get("startPhaseDeg"); v != "" {
			deg, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, fmt.Errorf("%w: startPhaseDeg %q", modem.ErrInvalidInput, v))
				return
			}
			req.StartPhaseDeg = &deg
		}
		res, wf, err := h.modulate(req)
		if err != nil {
			writeError(w, err)
			return
		}
		doc = render.WaveSVG(wf, render.Options{Title: res.Title})

	default:
		bits := q.Get("bits")
		if bits == "" {
			bits = h.cfg.LineCode.Bits
		}
		res, err := h.RenderLineCode(EncodeRequest{Scheme: name, Bits: bits})
		if err != nil {
			writeError(w, err)
			return
		}
		doc = render.StepSVG(res.Levels, render.Options{
			Title:         res.Title,
			SamplesPerBit: res.SamplesPerBit,
			Labels:        strings.Split(res.Bits, ""),
		})
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	fmt.Fprint(w, doc)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, modem.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("Request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
