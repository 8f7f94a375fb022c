// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package realtime

import (
	"strings"
	"sync"
	"time"

	oairealtime "github.com/openai/openai-go/v3/realtime"
)

const defaultPCMRate int64 = 24000

// ToRealtimeAudioFormat normalizes an audio format name into OpenAI
// Realtime audio format params. Unknown names yield nil.
func ToRealtimeAudioFormat(format string) *oairealtime.RealtimeAudioFormatsUnionParam {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "pcm16", "audio/pcm", "pcm":
		return &oairealtime.RealtimeAudioFormatsUnionParam{
			OfAudioPCM: &oairealtime.RealtimeAudioFormatsAudioPCMParam{
				Type: "audio/pcm",
				Rate: defaultPCMRate,
			},
		}
	case "g711_ulaw", "audio/pcmu", "pcmu":
		return &oairealtime.RealtimeAudioFormatsUnionParam{
			OfAudioPCMU: &oairealtime.RealtimeAudioFormatsAudioPCMUParam{
				Type: "audio/pcmu",
			},
		}
	case "g711_alaw", "audio/pcma", "pcma":
		return &oairealtime.RealtimeAudioFormatsUnionParam{
			OfAudioPCMA: &oairealtime.RealtimeAudioFormatsAudioPCMAParam{
				Type: "audio/pcma",
			},
		}
	default:
		return nil
	}
}

// audioDurationMS returns the playback length of n audio bytes in the given
// format: 16-bit PCM at 24kHz, or 8-bit G.711 at 8kHz.
func audioDurationMS(format string, n int) float64 {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "g711_ulaw", "g711_alaw", "audio/pcmu", "audio/pcma", "pcmu", "pcma":
		return float64(n) / 8000 * 1000
	default:
		return float64(n) / 2 / float64(defaultPCMRate) * 1000
	}
}

type audioItemState struct {
	itemID       string
	contentIndex int
	firstChunkAt time.Time
	audioMS      float64
}

// audioTracker remembers how much output audio the model sent for the most
// recent content part, so that an interruption can truncate it.
type audioTracker struct {
	mu     sync.Mutex
	format string
	now    func() time.Time
	last   *audioItemState
}

func newAudioTracker(format string) *audioTracker {
	return &audioTracker{format: format, now: time.Now}
}

func (t *audioTracker) setFormat(format string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.format = format
}

func (t *audioTracker) onAudioDelta(itemID string, contentIndex int, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil || t.last.itemID != itemID || t.last.contentIndex != contentIndex {
		t.last = &audioItemState{itemID: itemID, contentIndex: contentIndex, firstChunkAt: t.now()}
	}
	t.last.audioMS += audioDurationMS(t.format, n)
}

// playbackPosition estimates how far the client has played the current
// audio: the wall time since its first chunk, capped by the audio length.
func (t *audioTracker) playbackPosition() (itemID string, contentIndex int, elapsedMS int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return "", 0, 0, false
	}
	elapsed := float64(t.now().Sub(t.last.firstChunkAt).Milliseconds())
	elapsed = min(elapsed, t.last.audioMS)
	return t.last.itemID, t.last.contentIndex, int(elapsed), true
}

func (t *audioTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = nil
}
