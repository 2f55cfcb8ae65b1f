package executor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"vigilo/src/modules/certificate"
	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"
	"vigilo/src/version"

	"github.com/Azure/go-ntlmssp"
	jsonata "github.com/blues/jsonata-go"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Providers key off this agent string, keep it stable.
const userAgentFormat = "Uptime-Kuma/%s"

const maxResponseBytes = 10 << 20

// HTTPExecutor serves the http, keyword and json-query monitor types.
type HTTPExecutor struct {
	logger *zap.SugaredLogger

	mu           sync.Mutex
	tokenSources map[string]cachedTokenSource // monitor id -> source for current credentials
}

// cachedTokenSource pins the token source to the credentials it was built
// from, so a config reload with rotated credentials replaces it.
type cachedTokenSource struct {
	key string
	src oauth2.TokenSource
}

func oauthConfigKey(m *monitor.Model) string {
	return strings.Join([]string{m.OAuthTokenURL, m.OAuthClientID, m.OAuthClientSecret, m.OAuthScopes}, "\x00")
}

func NewHTTPExecutor(logger *zap.SugaredLogger) *HTTPExecutor {
	return &HTTPExecutor{
		logger:       logger.With("executor", "http"),
		tokenSources: make(map[string]cachedTokenSource),
	}
}

// clientTLSConfig builds client-side TLS material from the monitor's PEM
// fields. Shared by the HTTP transport and the docker daemon client.
func clientTLSConfig(m *monitor.Model) (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: m.IgnoreTLS}

	if m.TLSCert != "" && m.TLSKey != "" {
		cert, err := tls.X509KeyPair([]byte(m.TLSCert), []byte(m.TLSKey))
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if m.TLSCa != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(m.TLSCa)) {
			return nil, fmt.Errorf("invalid CA bundle")
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func (e *HTTPExecutor) buildTransport(m *monitor.Model) (*http.Transport, error) {
	tlsCfg, err := clientTLSConfig(m)
	if err != nil {
		return nil, err
	}
	// session reuse disabled so every probe observes a full handshake
	tlsCfg.SessionTicketsDisabled = true

	tr := &http.Transport{
		TLSClientConfig:   tlsCfg,
		DisableKeepAlives: true,
	}

	if m.ProxyURL != "" {
		u, err := url.Parse(m.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		if u.Scheme == "socks5" {
			var auth *proxy.Auth
			if u.User != nil {
				pass, _ := u.User.Password()
				auth = &proxy.Auth{User: u.User.Username(), Password: pass}
			}
			dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("socks5 proxy: %w", err)
			}
			tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		} else {
			tr.Proxy = http.ProxyURL(u)
		}
	}

	return tr, nil
}

func (e *HTTPExecutor) buildClient(m *monitor.Model, tr http.RoundTripper) *http.Client {
	client := &http.Client{Transport: tr}

	maxRedirects := m.MaxRedirects
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("maximum redirects (%d) exceeded", maxRedirects)
		}
		return nil
	}
	return client
}

func (e *HTTPExecutor) oauthToken(ctx context.Context, m *monitor.Model) (*oauth2.Token, error) {
	key := oauthConfigKey(m)

	e.mu.Lock()
	cached, ok := e.tokenSources[m.ID]
	if !ok || cached.key != key {
		cfg := &clientcredentials.Config{
			ClientID:     m.OAuthClientID,
			ClientSecret: m.OAuthClientSecret,
			TokenURL:     m.OAuthTokenURL,
		}
		if m.OAuthScopes != "" {
			cfg.Scopes = strings.Split(m.OAuthScopes, " ")
		}
		// TokenSource caches the token and refreshes it on expiry.
		cached = cachedTokenSource{key: key, src: cfg.TokenSource(context.Background())}
		e.tokenSources[m.ID] = cached
	}
	e.mu.Unlock()

	return cached.src.Token()
}

func (e *HTTPExecutor) buildRequest(ctx context.Context, m *monitor.Model) (*http.Request, error) {
	method := m.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	if m.Body != "" {
		switch m.BodyEncoding {
		case "", "json":
			var js any
			if err := json.Unmarshal([]byte(m.Body), &js); err != nil {
				return nil, fmt.Errorf("request body is not valid JSON: %w", err)
			}
			contentType = "application/json"
		case "xml":
			if err := xml.Unmarshal([]byte(m.Body), new(any)); err != nil {
				// providers accept fragments; only reject empty bodies
				e.logger.Debugf("xml body for %s did not parse cleanly: %v", m.ID, err)
			}
			contentType = "text/xml; charset=utf-8"
		default:
			return nil, fmt.Errorf("unknown body encoding %q", m.BodyEncoding)
		}
		body = strings.NewReader(m.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", fmt.Sprintf(userAgentFormat, version.Version))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range m.Headers {
		req.Header.Set(k, v)
	}

	switch m.AuthMethod {
	case "", "none", "mtls":
		// mtls is configured at the transport level
	case "basic":
		req.SetBasicAuth(m.BasicAuthUser, m.BasicAuthPass)
	case "oauth2-cc":
		token, err := e.oauthToken(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("oauth2 token: %w", err)
		}
		token.SetAuthHeader(req)
	case "ntlm":
		// handled by the ntlm round tripper; send credentials preemptively
		req.SetBasicAuth(m.AuthDomain+"\\"+m.BasicAuthUser, m.BasicAuthPass)
	default:
		return nil, fmt.Errorf("unknown auth method %q", m.AuthMethod)
	}

	return req, nil
}

func (e *HTTPExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()
	result := &Result{StartTime: start}

	tr, err := e.buildTransport(m)
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = tr
	if m.AuthMethod == "ntlm" {
		rt = ntlmssp.Negotiator{RoundTripper: tr}
	}
	client := e.buildClient(m, rt)
	defer tr.CloseIdleConnections()

	req, err := e.buildRequest(ctx, m)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result.Ping = pingMs(time.Since(start))

	if resp.TLS != nil {
		result.TLSInfo = certificate.BuildTLSInfo(resp.TLS)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	matcher, err := ParseAcceptedStatusCodes(m.AcceptedStatusCodes)
	if err != nil {
		return nil, err
	}
	if !matcher.Match(resp.StatusCode) {
		return nil, fmt.Errorf("%s", resp.Status)
	}

	switch m.Type {
	case "keyword":
		return e.finishKeyword(m, result, resp, body)
	case "json-query":
		return e.finishJSONQuery(m, result, resp, body)
	default:
		return e.finishHTTP(m, result, resp, body)
	}
}

func (e *HTTPExecutor) finishHTTP(m *monitor.Model, result *Result, resp *http.Response, body []byte) (*Result, error) {
	if m.CheckContentParam {
		fields := ScanContentFields(body)
		if AllContentFieldsNull(fields) {
			return nil, fmt.Errorf("all content fields are null: %s", ContentFieldPaths(fields))
		}
	}
	result.Status = shared.MonitorStatusUp
	result.Message = resp.Status
	result.EndTime = time.Now().UTC()
	return result, nil
}

func (e *HTTPExecutor) finishKeyword(m *monitor.Model, result *Result, resp *http.Response, body []byte) (*Result, error) {
	contains := strings.Contains(string(body), m.Keyword)
	if contains == m.InvertKeyword {
		if m.InvertKeyword {
			return nil, fmt.Errorf("keyword %q is present", m.Keyword)
		}
		return nil, fmt.Errorf("keyword %q not found", m.Keyword)
	}
	result.Status = shared.MonitorStatusUp
	result.Message = fmt.Sprintf("%s, keyword %q %s", resp.Status, m.Keyword, keywordState(m.InvertKeyword))
	result.EndTime = time.Now().UTC()
	return result, nil
}

func keywordState(inverted bool) string {
	if inverted {
		return "is absent"
	}
	return "is present"
}

func (e *HTTPExecutor) finishJSONQuery(m *monitor.Model, result *Result, resp *http.Response, body []byte) (*Result, error) {
	expr, err := jsonata.Compile(m.JSONPath)
	if err != nil {
		return nil, fmt.Errorf("invalid json query: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	value, err := expr.Eval(doc)
	if err != nil {
		return nil, fmt.Errorf("json query: %w", err)
	}

	got := fmt.Sprintf("%v", value)
	if got != m.ExpectedValue {
		return nil, fmt.Errorf("json query returned %q, expected %q", got, m.ExpectedValue)
	}

	result.Status = shared.MonitorStatusUp
	result.Message = fmt.Sprintf("%s, json query returns the expected value", resp.Status)
	result.EndTime = time.Now().UTC()
	return result, nil
}
