package advisor

import (
	"codeberg.org/mutker/scadactl/internal/config"
	"codeberg.org/mutker/scadactl/internal/logger"
)

// New picks the implementation from the configuration: Claude when an
// API key is present, the canned mock otherwise.
func New(cfg config.LLMConfig, source DataSource) (Advisor, error) {
	if cfg.APIKey == "" {
		logger.Info().Msg("No API key configured, using mock advisor")
		return NewMock(source), nil
	}

	return NewClaude(cfg, source)
}
