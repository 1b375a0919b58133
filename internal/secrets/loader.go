package secrets

import (
	"os"
	"strings"

	"github.com/spigell/smart-hr/internal/errors"
)

// Source describes where a secret can come from. File wins over Env, and Env wins over Value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration.
	Value string
	// Env names an environment variable holding the secret.
	Env string
	// File points to a file containing the secret value.
	File string
}

// Load returns the trimmed secret from the first populated location.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s from file %q", name, file)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", errors.Newf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", errors.Newf("%s is not configured", name)
	}

	return secret, nil
}
