package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required config %s", envName)
	}
}

func MustNonEmptySlice(value []string, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required config %s", envName)
	}
}
