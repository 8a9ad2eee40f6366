package env

import "os"

// Get reads key from the environment, preferring the OCULENT_-prefixed
// form, and falls back to fallback when neither is set.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv("OCULENT_" + key); ok {
		return value
	}
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
