package pricelist

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrBadURL   = errors.New("invalid url")
	ErrUpstream = errors.New("price list fetch failed")
)

// CheckURL accepts absolute http(s) URLs with a host.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrBadURL, raw)
	}
	return nil
}

type Fetcher struct {
	Timeout  time.Duration
	MaxBytes int
}

func NewFetcher(timeout time.Duration, maxBytes int) *Fetcher {
	return &Fetcher{Timeout: timeout, MaxBytes: maxBytes}
}

// maxRedirects bounds how many Location hops a fetch follows.
const maxRedirects = 3

// Fetch downloads the document body, following up to three redirects to
// other http(s) URLs. Any transport error, non-2xx final answer or body over
// MaxBytes is reported as ErrUpstream.
func (f *Fetcher) Fetch(raw string) ([]byte, error) {
	if err := CheckURL(raw); err != nil {
		return nil, err
	}

	target := raw
	for hop := 0; ; hop++ {
		code, body, next, err := f.get(target)
		if err != nil {
			return nil, err
		}
		if next == "" {
			if code < 200 || code > 299 {
				return nil, fmt.Errorf("%w: status %d", ErrUpstream, code)
			}
			return body, nil
		}
		if hop == maxRedirects {
			return nil, fmt.Errorf("%w: more than %d redirects", ErrUpstream, maxRedirects)
		}
		if target, err = resolve(target, next); err != nil {
			return nil, err
		}
	}
}

// get performs one request. next is the Location of a redirect answer.
func (f *Fetcher) get(target string) (code int, body []byte, next string, err error) {
	a := fiber.Get(target)
	if f.Timeout > 0 {
		a.Timeout(f.Timeout)
	}
	if err := a.Parse(); err != nil {
		return 0, nil, "", fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if f.MaxBytes > 0 {
		a.MaxResponseBodySize = f.MaxBytes
	}
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	a.SetResponse(resp)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, "", fmt.Errorf("%w: %v", ErrUpstream, errors.Join(errs...))
	}
	switch code {
	case fiber.StatusMovedPermanently, fiber.StatusFound, fiber.StatusSeeOther,
		fiber.StatusTemporaryRedirect, fiber.StatusPermanentRedirect:
		loc := string(resp.Header.Peek(fiber.HeaderLocation))
		if loc == "" {
			return 0, nil, "", fmt.Errorf("%w: redirect %d without location", ErrUpstream, code)
		}
		return code, nil, loc, nil
	}
	if f.MaxBytes > 0 && len(body) > f.MaxBytes {
		return 0, nil, "", fmt.Errorf("%w: body larger than %d bytes", ErrUpstream, f.MaxBytes)
	}
	return code, append([]byte(nil), body...), "", nil
}

// resolve turns a Location value into an absolute URL and keeps redirects
// on http(s).
func resolve(base, loc string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	l, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("%w: bad redirect %q", ErrUpstream, loc)
	}
	next := b.ResolveReference(l).String()
	if err := CheckURL(next); err != nil {
		return "", fmt.Errorf("%w: redirect to %v", ErrUpstream, err)
	}
	return next, nil
}
