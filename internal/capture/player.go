package capture

import (
	"context"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// NopPlayer implements the speech output contract by discarding audio. Real
// playback is handled by the device integration layer.
type NopPlayer struct{}

var _ domain.SpeechPlayer = (*NopPlayer)(nil)

func NewNopPlayer() *NopPlayer {
	return &NopPlayer{}
}

func (p *NopPlayer) Play(ctx context.Context, audio []byte) error {
	logger.Debug("discarding synthesized speech", "bytes", len(audio))
	return nil
}

func (p *NopPlayer) Stop() {}
