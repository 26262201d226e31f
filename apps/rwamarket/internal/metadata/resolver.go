package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ipfsScheme   = "ipfs://"
	ipfsPathPart = "/ipfs/"
)

// maxDocumentBytes bounds how much of a metadata response is read.
const maxDocumentBytes = 1 << 20

// Attribute is a single {trait_type, value} pair of a metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Document is the off-chain description of an asset.
type Document struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// ResolutionError reports a metadata fetch or parse failure.
type ResolutionError struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to resolve metadata %s: gateway returned status %d", e.URI, e.StatusCode)
	}
	return fmt.Sprintf("failed to resolve metadata %s: %v", e.URI, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver fetches metadata documents through an IPFS HTTP gateway.
type Resolver struct {
	gateway    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewResolver creates a resolver for the given gateway base URL
func NewResolver(gateway string, logger *zap.Logger) *Resolver {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Resolver{
		gateway:    gateway,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// IsContentAddressed reports whether uri points into IPFS, either as an
// ipfs:// URI or as a path on some HTTP gateway.
func IsContentAddressed(uri string) bool {
	return contentPath(uri) != ""
}

// contentPath returns the "<cid>[/path]" part of an IPFS location, or "" when
// uri is not one.
func contentPath(uri string) string {
	if strings.HasPrefix(uri, ipfsScheme) {
		return strings.TrimPrefix(uri, ipfsScheme)
	}
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if _, rest, ok := strings.Cut(parsed.Path, ipfsPathPart); ok {
		return rest
	}
	return ""
}

// Resolve fetches and parses the document behind uri. URIs that are not
// content addressed resolve to nil without error.
func (r *Resolver) Resolve(ctx context.Context, uri string) (*Document, error) {
	if !IsContentAddressed(uri) {
		return nil, nil
	}

	// gateway-hosted URIs are fetched through our own gateway
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.gateway+contentPath(uri), nil)
	if err != nil {
		return nil, &ResolutionError{URI: uri, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &ResolutionError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ResolutionError{URI: uri, StatusCode: resp.StatusCode}
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&doc); err != nil {
		return nil, &ResolutionError{URI: uri, Err: fmt.Errorf("failed to decode document: %w", err)}
	}

	doc.Image = r.GatewayURL(doc.Image)

	r.logger.Debug("Resolved metadata", zap.String("uri", uri), zap.String("name", doc.Name))
	return &doc, nil
}

// GatewayURL rewrites an ipfs:// URI or a bare CID to an HTTP gateway URL.
// Any other URI with a scheme (https, data, ar, ...) and root-relative paths
// are returned as is; empty stays empty.
func (r *Resolver) GatewayURL(uri string) string {
	switch {
	case uri == "":
		return ""
	case strings.HasPrefix(uri, ipfsScheme):
		return r.gateway + strings.TrimPrefix(uri, ipfsScheme)
	case strings.HasPrefix(uri, "/"), hasScheme(uri):
		return uri
	default:
		return r.gateway + uri
	}
}

func hasScheme(uri string) bool {
	parsed, err := url.Parse(uri)
	if err != nil {
		// a colon before any slash still marks a scheme
		colon := strings.IndexByte(uri, ':')
		return colon > 0 && !strings.ContainsRune(uri[:colon], '/')
	}
	return parsed.Scheme != ""
}
