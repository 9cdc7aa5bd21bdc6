package modelref

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Artifact describes a downloaded model file.
type Artifact struct {
	// FileName comes from Content-Disposition, else the last URL path segment.
	FileName string `json:"file_name"`

	// Size is the number of bytes read from the response body.
	Size int64 `json:"size"`

	// SHA256 is the uppercase hex digest of the body.
	SHA256 string `json:"sha256sum"`
}

// FetchArtifact downloads url and returns its name, size and checksum.
// The body is hashed as it streams and is not kept.
//
// progress, if non-nil, is called as bytes arrive with the running total and
// the Content-Length (or -1 when unknown).
//
// A 401 response returns ErrAuthorizationRequired; any other non-200 status
// or transport failure returns ErrNetwork.
func FetchArtifact(ctx context.Context, client HTTPClient, rawURL string, progress func(done, total int64)) (Artifact, error) {
	if client == nil {
		client = &http.Client{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("fetching %s: %w: %v", rawURL, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Artifact{}, fmt.Errorf("fetching %s: %w", rawURL, ErrAuthorizationRequired)
	}
	if resp.StatusCode != http.StatusOK {
		return Artifact{}, fmt.Errorf("fetching %s: status %d: %w", rawURL, resp.StatusCode, ErrNetwork)
	}

	var done int64
	var reader io.Reader = resp.Body
	if progress != nil {
		total := resp.ContentLength
		reader = &progressReader{reader: resp.Body, onProgress: func(delta int64) {
			done += delta
			progress(done, total)
		}}
	}

	h := sha256.New()
	n, err := io.Copy(h, reader)
	if err != nil {
		return Artifact{}, fmt.Errorf("reading %s: %w: %v", rawURL, ErrNetwork, err)
	}

	return Artifact{
		FileName: artifactName(resp, rawURL),
		Size:     n,
		SHA256:   strings.ToUpper(hex.EncodeToString(h.Sum(nil))),
	}, nil
}

// artifactName picks the file name announced by the server, falling back to
// the last path segment of the request URL.
func artifactName(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(params["filename"]); params["filename"] != "" && name != "." && name != "/" {
				return name
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if name := path.Base(u.Path); name != "." && name != "/" {
			return name
		}
	}

	// Opaque URL: keep what follows the last slash, as is.
	return rawURL[strings.LastIndex(rawURL, "/")+1:]
}

// progressReader wraps an io.Reader and reports progress as bytes are read.
type progressReader struct {
	reader     io.Reader
	onProgress func(delta int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}
