package genai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Vectorize turns a hosted raster into SVG markup. Palette whitening and gap
// filling keep the flat-art output clean at small render sizes.
func Vectorize(ctx context.Context, imageURL string) (string, error) {
	formData := url.Values{}
	formData.Set("image.url", imageURL)
	formData.Set("output.file_format", "svg")
	formData.Set("output.gap_filler.enabled", "true")
	formData.Set("processing.palette.whitening", "true")

	req, err := http.NewRequestWithContext(ctx, "POST", "https://vectorizer.ai/api/v1/vectorize", strings.NewReader(formData.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(os.Getenv("VECTORIZER_API_ID"), os.Getenv("VECTORIZER_API_SECRET"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := httpCli.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vectorization http %d", res.StatusCode)
	}

	svg, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(svg), nil
}
