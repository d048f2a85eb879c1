package fleetapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"evfleet-console/internal/session"
)

// Client implements ports.RouteService against the fleet Persistence API.
//
// Reads are retried with backoff on transient failures. Mutations are sent
// exactly once: the server rejects duplicate transitions, and a silent
// client-side retry of a timed-out mutation could double-submit. Callers
// re-trigger mutations explicitly.
type Client struct {
	baseURL string
	session *session.Session
	http    *http.Client
	log     zerolog.Logger
}

func New(baseURL string, sess *session.Session, log zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fleet api base URL is empty")
	}
	if sess == nil {
		return nil, errors.New("fleet api session is nil")
	}

	return &Client{
		baseURL: baseURL,
		session: sess,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}, nil
}
