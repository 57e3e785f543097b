// Package proxy forwards a verified request to the publisher's origin and
// streams back the response. It strips proof-of-payment headers outbound
// and appends the client's IP for the origin's own analytics.
package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/justin-graham/Tachi-sub009/internal/metrics"
)

// Origin is a reverse proxy targeting a publisher's origin server.
type Origin struct {
	proxy   *httputil.ReverseProxy
	metrics *metrics.Metrics
}

// New builds an Origin proxy targeting originURL.
func New(originURL string, m *metrics.Metrics) (*Origin, error) {
	target, err := url.Parse(originURL)
	if err != nil {
		return nil, err
	}

	rp := httputil.NewSingleHostReverseProxy(target)

	base := rp.Director
	rp.Director = func(req *http.Request) {
		base(req)

		// §4.8: strip proof-of-payment headers before forwarding — the
		// origin must never see the client's payment credentials.
		req.Header.Del("Authorization")
		req.Header.Del("X-402-Payment")

		// User-Agent and any inbound X-Forwarded-For are left in place.
		// Unlike the RPC-facing reverse proxy this is adapted from, which
		// strips forwarding headers to protect caller privacy toward an RPC
		// node, X-Forwarded-For is kept: after Director returns,
		// ReverseProxy itself appends the client IP to it, so the origin
		// (a publisher) sees the crawler's IP.
		req.Host = target.Host
	}

	rp.ModifyResponse = func(resp *http.Response) error {
		if m != nil {
			class := "2xx"
			switch {
			case resp.StatusCode >= 500:
				class = "5xx"
			case resp.StatusCode >= 400:
				class = "4xx"
			case resp.StatusCode >= 300:
				class = "3xx"
			}
			m.ProxyStatus.WithLabelValues(class).Inc()
		}
		return nil
	}

	rp.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		slog.Error("origin proxy error", "err", err)
		if m != nil {
			m.ProxyStatus.WithLabelValues("5xx").Inc()
		}
		http.Error(w, "origin unavailable", http.StatusBadGateway)
	}

	return &Origin{proxy: rp, metrics: m}, nil
}

func (o *Origin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.proxy.ServeHTTP(w, r)
}
