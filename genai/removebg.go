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

// RemoveBackground sends a hosted raster to the background-removal API and
// returns the cut-out PNG bytes.
func RemoveBackground(ctx context.Context, imageURL string) ([]byte, error) {
	formData := url.Values{}
	formData.Set("image_url", imageURL)
	formData.Set("size", "auto")
	formData.Set("format", "png")

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.remove.bg/v1.0/removebg", strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", os.Getenv("REMOVEBG_API_KEY"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("background removal http %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}
