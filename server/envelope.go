package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool    `json:"success"`
	Latency float64 `json:"latency"`
	Code    int     `json:"code"`
	Result  any     `json:"result"`
}

// Message is the result of a response that carries no data. Code is
// "<endpoint id>/<slug of message>", stable enough for clients to match on.
type Message struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func slug(text string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
		} else {
			dash = true
		}
	}
	return sb.String()
}

// endpointID names a route the way response codes refer to it, e.g.
// "get--analyze".
func endpointID(method, path string) string {
	return strings.ToLower(method) + "--" + slug(path)
}

func writeEnvelope(w http.ResponseWriter, code int, result any, start time.Time) {
	env := Envelope{
		Success: code < 400,
		Latency: float64(time.Since(start).Microseconds()) / 1000,
		Code:    code,
		Result:  result,
	}
	writeJSON(w, code, env)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Err(err).Msg("write-response-failed")
	}
}

func messageResult(id, message string) Message {
	return Message{Message: message, Code: id + "/" + slug(message)}
}

// clientIP prefers proxy headers, then falls back to the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
