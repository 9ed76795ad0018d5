package file

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// LoadDotEnv loads each existing .env file into the process environment.
// Variables already set in the environment win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("loaded environment from %s", p)
	}
	return nil
}
