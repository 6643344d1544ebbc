package scripts

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Default prompts, used when no prompt files are configured or a
// configured file cannot be read.
const (
	DefaultSystemMessage = `You are a script coach who helps people improve their screenplays. ` +
		`You analyze scenes and dialogue, give constructive feedback and suggest practical rewrites.`

	TrainingSystemMessage = `You are a communication coach running training dialogues. In training mode you:
1. Open with a greeting and an explanation of the training format
2. Play out the dialogue for 7 turns, modelling different communication situations
3. After 7 turns, give constructive feedback
4. Offer the next training situation

Be friendly but professional. Keep your replies short and to the point.`
)

// Prompts holds the system messages attached to relay requests
type Prompts struct {
	System   string
	Training string
}

// Load reads a prompt or reference document from disk, falling back
// when the file is missing, unreadable or blank
func Load(path, fallback string) string {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("prompt file unavailable, using fallback")
		return fallback
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		log.Debug().Str("path", path).Msg("prompt file empty, using fallback")
		return fallback
	}
	return text
}

// LoadPrompts resolves the system and training prompts from the
// configured files
func LoadPrompts(systemFile, trainingFile string) Prompts {
	return Prompts{
		System:   Load(systemFile, DefaultSystemMessage),
		Training: Load(trainingFile, TrainingSystemMessage),
	}
}

// Select returns the prompt for the requested mode
func (p Prompts) Select(training bool) string {
	if training {
		return p.Training
	}
	return p.System
}
