package wrapper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestContentExtractor_Extract_Success(t *testing.T) {
	htmlContent := `
<!DOCTYPE html>
<html>
<head>
    <title>Test Page Title</title>
    <meta name="description" content="This is a test page description">
</head>
<body>
    <header><nav>Navigation menu</nav></header>
    <main>
        <article>
            <h1>Main Article Title</h1>
            <p>This is the first paragraph of the article.</p>
            <p>This is the second paragraph with more content.</p>
            <p>And a third paragraph to ensure we have enough content.</p>
        </article>
    </main>
    <footer>Footer content</footer>
    <script>console.log("should be removed");</script>
</body>
</html>
`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlContent))
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	content, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, want := range []string{"Test Page Title", "test page description", "first paragraph"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
	for _, unwanted := range []string{"console.log", "Navigation menu"} {
		if strings.Contains(content, unwanted) {
			t.Errorf("content should not contain %q:\n%s", unwanted, content)
		}
	}
}

func TestContentExtractor_Extract_NonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"value"}`))
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	_, err := extractor.Extract(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "unsupported content type") {
		t.Fatalf("Extract() error = %v, want an unsupported-content-type error", err)
	}
}

func TestContentExtractor_Extract_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	_, err := extractor.Extract(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("Extract() error = %v, want a 404 error", err)
	}
}

func TestContentExtractor_Extract_InvalidURL(t *testing.T) {
	extractor := NewContentExtractorForTesting()
	if _, err := extractor.Extract(context.Background(), "not-a-valid-url"); err == nil {
		t.Fatal("Extract() error = nil, want a parse error")
	}
}

func TestContentExtractor_Extract_BlocksLoopback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>should never be read</body></html>"))
	}))
	defer server.Close()

	extractor := NewContentExtractor()
	_, err := extractor.Extract(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "egress blocked") {
		t.Fatalf("Extract() error = %v, want an egress-blocked error for a loopback URL", err)
	}
}

func TestContentExtractor_Extract_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write([]byte("<html><body>too slow</body></html>"))
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := extractor.Extract(ctx, server.URL); err == nil {
		t.Fatal("Extract() error = nil, want a context-deadline error")
	}
}

func TestNetworkEgressGuard_BlocksPrivateAndMetadataAddresses(t *testing.T) {
	blocked := []string{"127.0.0.1", "10.1.2.3", "192.168.1.1", "172.16.0.5", "169.254.169.254", "::1"}
	for _, ip := range blocked {
		t.Run(ip, func(t *testing.T) {
			g := &networkEgressGuard{resolve: func(string) ([]net.IP, error) {
				return []net.IP{net.ParseIP(ip)}, nil
			}}
			if err := g.allow("http://example.invalid/"); err == nil {
				t.Errorf("allow() = nil, want an error for blocked address %s", ip)
			}
		})
	}
}

func TestNetworkEgressGuard_AllowsPublicAddress(t *testing.T) {
	g := &networkEgressGuard{resolve: func(string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("93.184.216.34")}, nil
	}}
	if err := g.allow("https://example.com/"); err != nil {
		t.Errorf("allow() error = %v, want nil for a public address", err)
	}
}

func TestNetworkEgressGuard_RejectsNonHTTPScheme(t *testing.T) {
	g := newNetworkEgressGuard()
	if err := g.allow("file:///etc/passwd"); err == nil {
		t.Error("allow() = nil, want an error for a non-http(s) scheme")
	}
}

func TestNetworkEgressGuard_RejectsLocalhostHostname(t *testing.T) {
	g := newNetworkEgressGuard()
	if err := g.allow("http://localhost/"); err == nil {
		t.Error("allow() = nil, want an error for the localhost hostname")
	}
	if err := g.allow("http://box.localhost/"); err == nil {
		t.Error("allow() = nil, want an error for a .localhost suffix hostname")
	}
}

func TestNetworkEgressGuard_FailsOpenOnResolveError(t *testing.T) {
	g := &networkEgressGuard{resolve: func(string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	}}
	if err := g.allow("https://unresolvable.invalid/"); err != nil {
		t.Errorf("allow() error = %v, want nil when resolution fails (fail-open)", err)
	}
}

func TestReadablePage_Title(t *testing.T) {
	tests := []struct {
		name, html, want string
	}{
		{"title tag", `<html><head><title>Page Title</title></head></html>`, "Page Title"},
		{"og:title", `<html><head><meta property="og:title" content="OG Title"></head></html>`, "OG Title"},
		{"h1 fallback", `<html><body><h1>H1 Title</h1></body></html>`, "H1 Title"},
		{"no title", `<html><body>No title here</body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newReadablePage(tt.html).title(); got != tt.want {
				t.Errorf("title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadablePage_Description(t *testing.T) {
	tests := []struct {
		name, html, want string
	}{
		{"meta description", `<html><head><meta name="description" content="Page description"></head></html>`, "Page description"},
		{"og:description", `<html><head><meta property="og:description" content="OG description"></head></html>`, "OG description"},
		{"none", `<html><head></head></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newReadablePage(tt.html).description(); got != tt.want {
				t.Errorf("description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadablePage_Body(t *testing.T) {
	longEnough := "This paragraph has more content to meet the minimum length requirement for extraction. We need at least 200 characters of text content to be extracted successfully by the content extraction algorithm."

	tests := []struct {
		name       string
		html       string
		shouldFind bool
		contains   string
	}{
		{"main tag", `<html><body><main><p>Main content here. ` + longEnough + `</p></main></body></html>`, true, "Main content"},
		{"article tag", `<html><body><article><p>Article content here. ` + longEnough + `</p></article></body></html>`, true, "Article content"},
		{"content class", `<html><body><div class="content"><p>Div content here. ` + longEnough + `</p></div></body></html>`, true, "Div content"},
		{"too short falls back to body", `<html><body><main>Short</main></body></html>`, true, "Short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newReadablePage(tt.html).body()
			if tt.shouldFind && got == "" {
				t.Fatal("body() returned empty, want content")
			}
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("body() = %q, want substring %q", got, tt.contains)
			}
		})
	}
}

func TestStripElement(t *testing.T) {
	tests := []struct{ name, html, tag, want string }{
		{"script", `<html><script>alert('x')</script><body>Content</body></html>`, "script", `<html><body>Content</body></html>`},
		{"style", `<html><style>body{color:red}</style><body>Content</body></html>`, "style", `<html><body>Content</body></html>`},
		{"nav", `<html><nav>Menu</nav><body>Content</body></html>`, "nav", `<html><body>Content</body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripElement(tt.html, tt.tag); got != tt.want {
				t.Errorf("stripElement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		contains    []string
		notContains []string
	}{
		{
			name:        "paragraphs",
			html:        `<div><p>First paragraph</p><p>Second paragraph</p></div>`,
			contains:    []string{"First paragraph", "Second paragraph"},
			notContains: []string{"<p>", "</p>"},
		},
		{
			name:        "inline tags stripped",
			html:        `<div><span>Text with <strong>bold</strong> and <em>italic</em></span></div>`,
			contains:    []string{"Text with bold and italic"},
			notContains: []string{"<strong>", "<em>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlToText(tt.html)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("htmlToText() = %q, missing %q", got, want)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("htmlToText() = %q, should not contain %q", got, unwanted)
				}
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct{ name, input, want string }{
		{"entities", "Test &nbsp; &amp; &lt; &gt; &quot; &#39;", "Test & < > \" '"},
		{"collapses spaces", "Text  with   multiple    spaces", "Text with multiple spaces"},
		{"caps blank lines", "Line1\n\n\n\nLine2", "Line1\n\nLine2"},
		{"trims", "  leading and trailing  ", "leading and trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.input); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestContentExtractor_ExtractBatch(t *testing.T) {
	page := func(title string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>` + title + `</title></head><body><main><p>Content from ` + title + `</p></main></body></html>`))
		}
	}
	server1 := httptest.NewServer(page("Page 1"))
	defer server1.Close()
	server2 := httptest.NewServer(page("Page 2"))
	defer server2.Close()
	server3 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server3.Close()

	extractor := NewContentExtractorForTesting()
	results := extractor.ExtractBatch(context.Background(), []string{server1.URL, server2.URL, server3.URL})

	if len(results) != 2 {
		t.Fatalf("ExtractBatch() = %d results, want 2", len(results))
	}
	if !strings.Contains(results[server1.URL], "Page 1") {
		t.Errorf("server1 result missing its title: %q", results[server1.URL])
	}
	if !strings.Contains(results[server2.URL], "Page 2") {
		t.Errorf("server2 result missing its title: %q", results[server2.URL])
	}
	if _, ok := results[server3.URL]; ok {
		t.Error("failed URL should not appear in results")
	}
}

func TestContentExtractor_LengthLimit(t *testing.T) {
	long := strings.Repeat("A", 15000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main><p>` + long + `</p></main></body></html>`))
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	content, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(content) > defaultExtractMaxChars+100 {
		t.Errorf("content length = %d, want roughly %d plus ellipsis", len(content), defaultExtractMaxChars)
	}
	if !strings.HasSuffix(content, "...") {
		t.Error("truncated content should end with '...'")
	}
}

func TestContentExtractor_RealWorldHTML(t *testing.T) {
	htmlContent := `
<!DOCTYPE html>
<html lang="en">
<head>
    <title>Real World Article</title>
    <meta name="description" content="An article about web scraping and content extraction">
    <style>.sidebar { display: none; }</style>
    <script>console.log("Analytics tracking");</script>
</head>
<body>
    <header><nav><ul><li><a href="/">Home</a></li></ul></nav></header>
    <main>
        <article>
            <h1>Understanding Web Scraping</h1>
            <p>Web scraping is the process of extracting data from websites.
            It's a powerful technique used for data mining, research, and automation.</p>
            <h2>Why Content Extraction Matters</h2>
            <p>Content extraction helps focus on the main content of a page,
            removing navigation, ads, and other distractions.</p>
            <h2>Best Practices</h2>
            <p>When implementing content extraction, consider rate limiting and user agent identification.</p>
        </article>
    </main>
    <aside class="sidebar"><h3>Related Articles</h3></aside>
    <footer><p>&copy; 2026 Example Corp</p></footer>
</body>
</html>
`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlContent))
	}))
	defer server.Close()

	extractor := NewContentExtractorForTesting()
	content, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, want := range []string{"Real World Article", "Web scraping", "Content extraction", "Best Practices"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}
	for _, unwanted := range []string{"Analytics tracking", "console.log", "display: none", "Example Corp"} {
		if strings.Contains(content, unwanted) {
			t.Errorf("content should not contain %q", unwanted)
		}
	}
}
