package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/aluiziolira/go-news-classify/models"
)

// Identity is the client descriptor presented as the User-Agent header.
type Identity string

// Rotator draws identities from a fixed pool and builds sessions bound to them.
type Rotator struct {
	pool    []Identity
	timeout time.Duration
	rnd     *rand.Rand

	// Transport replaces the default HTTP transport of new sessions when set.
	Transport http.RoundTripper
}

// NewRotator builds a rotator over userAgents. A nil rnd uses a randomly seeded source.
func NewRotator(userAgents []string, timeout time.Duration, rnd *rand.Rand) (*Rotator, error) {
	if len(userAgents) == 0 {
		return nil, errors.New("scraper: identity pool is empty")
	}
	if timeout <= 0 {
		return nil, errors.New("scraper: timeout must be positive")
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := make([]Identity, len(userAgents))
	for i, ua := range userAgents {
		pool[i] = Identity(ua)
	}
	return &Rotator{pool: pool, timeout: timeout, rnd: rnd}, nil
}

// DrawIdentity returns one identity uniformly at random.
func (r *Rotator) DrawIdentity() Identity {
	return r.pool[r.rnd.IntN(len(r.pool))]
}

// NewSession returns a fresh session presenting id. The caller must Close it.
// Requests issued through the session are abandoned when ctx is cancelled.
func (r *Rotator) NewSession(ctx context.Context, id Identity) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := r.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   r.timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(string(id)),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(r.timeout)
	collector.SetCookieJar(jar)
	collector.WithTransport(transport)
	// Non-2xx responses are classified by the caller, not by colly.
	collector.ParseHTTPErrorResponse = true

	s := &Session{
		collector: collector,
		transport: transport,
		identity:  id,
	}
	collector.OnResponse(func(resp *colly.Response) {
		s.last.status = resp.StatusCode
		s.last.body = resp.Body
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if resp != nil {
			s.last.status = resp.StatusCode
		}
		s.last.err = err
	})
	return s, nil
}

// Session is a connection and cookie context presenting one identity at a time.
// It is not safe for concurrent use.
type Session struct {
	collector *colly.Collector
	transport http.RoundTripper
	identity  Identity
	closed    bool

	last struct {
		status int
		body   []byte
		err    error
	}
}

// Identity returns the identity currently presented.
func (s *Session) Identity() Identity {
	return s.identity
}

// SetIdentity presents id on every following request without dropping connections or cookies.
func (s *Session) SetIdentity(id Identity) {
	s.identity = id
	s.collector.UserAgent = string(id)
}

// Fetch issues a GET for url and reports how it ended. Successful responses
// are returned as OutcomeData with the body attached and no titles yet.
func (s *Session) Fetch(url string) models.PageOutcome {
	out := models.PageOutcome{URL: url}
	if s.closed {
		out.Kind = models.OutcomeTransportError
		out.Err = ErrSessionClosed
		return out
	}

	s.last.status, s.last.body, s.last.err = 0, nil, nil
	start := time.Now()
	err := s.collector.Visit(url)
	out.Duration = time.Since(start)
	if err == nil {
		err = s.last.err
	}
	out.StatusCode = s.last.status

	switch {
	case err != nil && (out.StatusCode == 0 || out.StatusCode/100 == 2):
		out.Kind = models.OutcomeTransportError
		out.Err = classifyError(err, 0)
	case out.StatusCode < 200 || out.StatusCode > 299:
		out.Kind = models.OutcomeStatusError
		out.Err = classifyError(err, out.StatusCode)
	default:
		out.Kind = models.OutcomeData
		out.Body = s.last.body
	}
	return out
}

// Close releases idle connections. It is safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	if closer, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
