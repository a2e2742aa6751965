package config

import (
	"os"
	"regexp"
)

// ${NAME} or ${NAME:-fallback}
var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars expands environment references. An unset variable with a
// fallback expands to the fallback; without one the reference is kept.
func substituteEnvVars(content []byte) []byte {
	return envVarRegex.ReplaceAllFunc(content, func(match []byte) []byte {
		sub := envVarRegex.FindSubmatchIndex(match)
		name := string(match[sub[2]:sub[3]])
		if value, exists := os.LookupEnv(name); exists {
			return []byte(value)
		}
		if sub[4] >= 0 {
			return match[sub[4]:sub[5]]
		}
		return match
	})
}
