package config

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Reachable reports whether base answers HTTP on any of the probe paths.
// A TCP dial runs first so a dead host fails fast.
func Reachable(base string, paths ...string) bool {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	d := net.Dialer{Timeout: 250 * time.Millisecond}
	conn, err := d.Dial("tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()

	if len(paths) == 0 {
		paths = []string{"/healthz", "/login"}
	}
	client := &http.Client{Timeout: 800 * time.Millisecond}
	for _, path := range paths {
		req, err := http.NewRequest(http.MethodGet, base+path, nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			return true
		}
	}
	return false
}

// DetectReachableBaseURL keeps initial when it answers, otherwise tries the
// same port on localhost and 127.0.0.1 and then the usual dev ports.
// When nothing answers initial is returned unchanged.
func DetectReachableBaseURL(initial, probePath string) string {
	start := time.Now()
	if Reachable(initial, probePath) {
		return initial
	}

	var candidates []string
	if u, err := url.Parse(initial); err == nil {
		port := u.Port()
		if port == "" {
			port = "8080"
		}
		for _, p := range []string{port, "8080", "8081"} {
			candidates = append(candidates, "http://localhost:"+p, "http://127.0.0.1:"+p)
		}
	}

	seen := map[string]struct{}{initial: {}}
	tried := []string{initial}
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		tried = append(tried, c)
		if Reachable(c, probePath) {
			log.Info().Str("from", initial).Str("to", c).Dur("took", time.Since(start)).Msg("switched base URL")
			return c
		}
	}
	log.Warn().Str("base_url", initial).Str("tried", strings.Join(tried, ",")).Msg("no reachable base URL found")
	return initial
}
