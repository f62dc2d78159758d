package config

import "voicescribe/internal/domain"

// DefaultModelID is the model used before the first explicit selection.
const DefaultModelID = "base"

// DefaultSettings returns baseline runtime settings for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Model:    DefaultModelID,
		Language: "auto",
	}
}
