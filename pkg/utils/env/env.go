package env

import (
	"os"
	"strings"
)

// Prefix is prepended to every variable name read through this package.
const Prefix = "ECHOR_"

// Get returns the value of ECHOR_<key>, falling back to the first default.
func Get(key string, def ...string) string {
	if value, ok := os.LookupEnv(Name(key)); ok {
		return value
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// Name maps a dotted config key such as "server.buffer_size" to its variable name.
func Name(key string) string {
	return Prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
