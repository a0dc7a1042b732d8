// file: internals/helpers/gemini/images.go
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	// Batas download satu halaman scan.
	maxPageBytes = 20 << 20
	// Scan HP bisa 4000px+; model tidak butuh sebesar itu.
	maxPageWidth = 1600
)

// FetchPageImage mengunduh satu halaman lembar jawaban, decode (jpeg/png/webp),
// kecilkan bila terlalu lebar, lalu re-encode JPEG untuk inline_data.
func FetchPageImage(ctx context.Context, httpc *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	res, err := httpc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch status %d", res.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(raw) > maxPageBytes {
		return nil, "", fmt.Errorf("page image larger than %d bytes", maxPageBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > maxPageWidth {
		img = imaging.Resize(img, maxPageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
