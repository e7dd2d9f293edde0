package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrTooLarge    = errors.New("frame exceeds size limit")
	ErrNotImage    = errors.New("frame is not an image")
	ErrRedirects   = errors.New("too many redirects")
	ErrPrivateHost = errors.New("frame host is not publicly routable")
)

// newHTTPClient caps redirects at maxRedirects. Unless allowPrivate is set
// every connection, redirects included, must go to a public address. The
// check runs on the resolved address, so DNS answers cannot sidestep it.
func newHTTPClient(maxRedirects int, allowPrivate bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   rejectPrivate,
		}
		transport.DialContext = dialer.DialContext
		// a proxy would be the dialed address, hiding the real target
		transport.Proxy = nil
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return ErrRedirects
			}
			return nil
		},
	}
}

func rejectPrivate(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPrivateHost, address)
	}
	if !publicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrPrivateHost, ap.Addr())
	}
	return nil
}

func publicAddr(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsValid() &&
		!a.IsLoopback() &&
		!a.IsPrivate() &&
		!a.IsLinkLocalUnicast() &&
		!a.IsLinkLocalMulticast() &&
		!a.IsInterfaceLocalMulticast() &&
		!a.IsMulticast() &&
		!a.IsUnspecified() &&
		!sharedAddressSpace.Contains(a)
}

// carrier-grade NAT, not covered by IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// fetch downloads one frame within the per-frame timeout, size and redirect
// limits.
func (i *Ingester) fetch(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > i.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, i.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > i.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	// Servers lie about Content-Type, trust the bytes
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return data, nil
}
