package secrets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/casualjim/chartwise/provider"
	"github.com/joho/godotenv"
)

var _ provider.SecretStore = (*EnvStore)(nil)

// EnvStore resolves secret names against the process environment first and
// the given dotenv files second. Dotenv files are read once, lazily.
type EnvStore struct {
	files  []string
	lookup func(string) (string, bool)

	once    sync.Once
	dotenv  map[string]string
	readErr error
}

// Env creates a store over the environment and the dotenv files. Missing
// files are ignored.
func Env(files ...string) *EnvStore {
	return &EnvStore{files: files, lookup: os.LookupEnv}
}

func (e *EnvStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := EnvName(key)
	if v, ok := e.lookup(name); ok {
		return v, nil
	}

	e.once.Do(e.load)
	if e.readErr != nil {
		return "", e.readErr
	}
	return e.dotenv[name], nil
}

func (e *EnvStore) load() {
	e.dotenv = make(map[string]string)
	for _, file := range e.files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			e.readErr = err
			return
		}
		for k, v := range values {
			// earlier files win, like godotenv.Load
			if _, ok := e.dotenv[k]; !ok {
				e.dotenv[k] = v
			}
		}
	}
}

// EnvName converts a camelCase secret name to its environment variable:
// openaiApiKey becomes OPENAI_API_KEY and groqApiKey2 becomes GROQ_API_KEY_2.
// Names that are already upper case are returned unchanged.
func EnvName(key string) string {
	if key == strings.ToUpper(key) {
		return key
	}

	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsUpper(r) && !unicode.IsUpper(prev) && prev != '_':
				b.WriteByte('_')
			case unicode.IsDigit(r) && !unicode.IsDigit(prev) && prev != '_':
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
