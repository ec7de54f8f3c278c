package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Enoch-015/Kali-E/internal/core"
	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Audio in both directions is G.711 u-law at 8 kHz: one byte per sample,
// so 8 bytes per millisecond.
func ulawDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / 8000
}

// Realtime is one pipeline instance: a websocket session to the realtime
// model wired to a room's audio.
type Realtime struct {
	apiKey  string
	baseURL string
	params  core.PipelineParams

	mu    sync.Mutex
	ws    *websocket.Conn
	audio core.AudioSession

	done      chan struct{}
	closeOnce sync.Once
}

type sessionConfig struct {
	Modalities              []string       `json:"modalities"`
	Instructions            string         `json:"instructions"`
	Voice                   string         `json:"voice"`
	InputAudioFormat        string         `json:"input_audio_format"`
	OutputAudioFormat       string         `json:"output_audio_format"`
	InputAudioTranscription *transcription `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetection `json:"turn_detection,omitempty"`
}

type transcription struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type clientEvent struct {
	Type     string         `json:"type"`
	Session  *sessionConfig `json:"session,omitempty"`
	Audio    string         `json:"audio,omitempty"`
	Item     *convItem      `json:"item,omitempty"`
	Response *responseSpec  `json:"response,omitempty"`
}

type convItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []convContent `json:"content"`
}

type convContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseSpec struct {
	Instructions string `json:"instructions,omitempty"`
}

type serverEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Attach dials the model, configures the session, and wires room audio.
func (p *Realtime) Attach(ctx context.Context, conn core.RoomConnection) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	url := p.baseURL + "?model=" + p.params.RealtimeModel
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("dial realtime model: %w", err)
	}
	p.mu.Lock()
	p.ws = ws
	p.mu.Unlock()

	instructions := p.params.Instructions
	if p.params.TTSInstructions != "" {
		instructions += "\n\n" + p.params.TTSInstructions
	}
	cfg := &sessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      instructions,
		Voice:             p.params.Voice,
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		TurnDetection:     &turnDetection{Type: "server_vad"},
	}
	if p.params.STTModel != "" {
		cfg.InputAudioTranscription = &transcription{
			Model:    p.params.STTModel,
			Language: p.params.STTLanguage,
		}
	}
	if err := p.write(ctx, &clientEvent{Type: "session.update", Session: cfg}); err != nil {
		ws.Close()
		return fmt.Errorf("configure realtime session: %w", err)
	}

	if audio, ok := conn.(core.AudioSession); ok {
		p.mu.Lock()
		p.audio = audio
		p.mu.Unlock()
		audio.OnAudioFrame(p.pushAudio)
	} else {
		log.Warn().Str("module", "adapters.agent").Str("room", string(conn.RoomName())).Msg("room connection has no audio surface, text-only pipeline")
	}

	go p.readLoop(conn.RoomName())
	return nil
}

// Say speaks text verbatim. Accepted once the request is on the wire.
func (p *Realtime) Say(ctx context.Context, text string) error {
	return p.write(ctx, &clientEvent{
		Type:     "response.create",
		Response: &responseSpec{Instructions: "Say the following to the user, verbatim: " + text},
	})
}

// GenerateReply feeds user text in and asks for a spoken response.
func (p *Realtime) GenerateReply(ctx context.Context, text string) error {
	item := &convItem{
		Type:    "message",
		Role:    "user",
		Content: []convContent{{Type: "input_text", Text: text}},
	}
	if err := p.write(ctx, &clientEvent{Type: "conversation.item.create", Item: item}); err != nil {
		return err
	}
	return p.write(ctx, &clientEvent{Type: "response.create"})
}

// Shutdown closes the model session. Safe to call more than once.
func (p *Realtime) Shutdown(ctx context.Context, reason string) error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		ws := p.ws
		audio := p.audio
		p.ws = nil
		p.audio = nil
		p.mu.Unlock()

		if audio != nil {
			audio.OnAudioFrame(nil)
		}
		if ws != nil {
			deadline := time.Now().Add(time.Second)
			if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
				deadline = d
			}
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
			_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
			err = ws.Close()
		}
	})
	return err
}

// pushAudio forwards a u-law frame from the room into the model.
func (p *Realtime) pushAudio(payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := p.write(ctx, &clientEvent{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "adapters.agent").Msg("dropped inbound audio frame")
	}
}

func (p *Realtime) write(ctx context.Context, ev *clientEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ws == nil {
		return fmt.Errorf("realtime session closed")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = p.ws.SetWriteDeadline(deadline)
	}
	return p.ws.WriteJSON(ev)
}

// readLoop consumes model events: speech audio goes to the room track,
// finalized transcripts go to the transcript hook.
func (p *Realtime) readLoop(room domain.RoomName) {
	for {
		p.mu.Lock()
		ws := p.ws
		p.mu.Unlock()
		if ws == nil {
			return
		}

		var ev serverEvent
		if err := ws.ReadJSON(&ev); err != nil {
			select {
			case <-p.done:
			default:
				log.Error().Err(err).Str("module", "adapters.agent").Str("room", string(room)).Msg("realtime session read failed")
			}
			return
		}

		switch ev.Type {
		case "response.audio.delta":
			payload, err := base64.StdEncoding.DecodeString(ev.Delta)
			if err != nil || len(payload) == 0 {
				continue
			}
			p.mu.Lock()
			audio := p.audio
			p.mu.Unlock()
			if audio != nil {
				if err := audio.WriteAudioFrame(payload, ulawDuration(len(payload))); err != nil {
					log.Debug().Err(err).Str("module", "adapters.agent").Str("room", string(room)).Msg("dropped outbound audio frame")
				}
			}
		case "response.audio_transcript.done":
			p.transcript(domain.SpeakerAgent, ev.Transcript)
		case "conversation.item.input_audio_transcription.completed":
			p.transcript(domain.SpeakerUser, ev.Transcript)
		case "error":
			if ev.Error != nil {
				log.Error().Str("module", "adapters.agent").Str("room", string(room)).Str("error", ev.Error.Message).Msg("realtime model error")
			}
		}
	}
}

func (p *Realtime) transcript(speaker, text string) {
	if text == "" || p.params.OnTranscript == nil {
		return
	}
	p.params.OnTranscript(speaker, text)
}
