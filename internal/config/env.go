package config

import (
	"strconv"
	"strings"
	"time"
)

// env reads typed values from a lookup function. Unset or empty variables,
// and values that do not parse, yield the default.
type env func(string) (string, bool)

func (e env) raw(k string) (string, bool) {
	v, ok := e(k)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (e env) str(k, def string) string {
	if v, ok := e.raw(k); ok {
		return v
	}
	return def
}

func (e env) integer(k string, def int) int {
	if v, ok := e.raw(k); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func (e env) number(k string, def float64) float64 {
	if v, ok := e.raw(k); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func (e env) flag(k string, def bool) bool {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func (e env) duration(k string, def time.Duration) time.Duration {
	if v, ok := e.raw(k); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

// list splits a comma-separated value, dropping blank items.
func (e env) list(k string) []string {
	v, ok := e.raw(k)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
