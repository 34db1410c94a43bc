package services

import (
	"context"
	"fmt"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// SpeechService synthesizes assistant text and plays it on the device
type SpeechService struct {
	gateway domain.ConversationGateway
	player  domain.SpeechPlayer
	cfg     config.SpeechConfig
}

// NewSpeechService creates a speech output service
func NewSpeechService(gateway domain.ConversationGateway, player domain.SpeechPlayer, cfg config.SpeechConfig) *SpeechService {
	return &SpeechService{
		gateway: gateway,
		player:  player,
		cfg:     cfg,
	}
}

// Speak synthesizes the text and plays it, blocking until playback finishes
// or ctx is cancelled
func (s *SpeechService) Speak(ctx context.Context, text string) error {
	audio, err := s.gateway.SynthesizeSpeech(ctx, text, s.cfg.Voice, s.cfg.Speed)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	if err := s.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	return nil
}

// Stop interrupts any in-flight playback
func (s *SpeechService) Stop() {
	s.player.Stop()
}
