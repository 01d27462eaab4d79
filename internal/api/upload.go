package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/tgienger/mixreview/internal/models"
)

// AllowedAudioExtensions are the file types the backend accepts for versions
var AllowedAudioExtensions = []string{".wav", ".mp3", ".flac"}

// Progress receives the number of file bytes sent so far and the file size
type Progress func(sent, total int64)

// Upload describes a new version upload
type Upload struct {
	SongID        int64
	Path          string
	Label         string
	VersionNumber int // 0 lets the server pick the next number
}

// CheckAudioFile validates the extension of an upload before any network call
func CheckAudioFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return Required("file")
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range AllowedAudioExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &ValidationError{
		Field:   "file",
		Message: "Only WAV, MP3, and FLAC files are allowed.",
	}
}

// UploadVersion streams an audio file as a new version of a song
func (c *Client) UploadVersion(ctx context.Context, up Upload, progress Progress) (*models.Version, error) {
	if err := CheckAudioFile(up.Path); err != nil {
		return nil, err
	}
	if up.VersionNumber < 0 {
		return nil, &ValidationError{Field: "version", Message: "version number must be positive"}
	}

	fields := func(form *multipart.Writer) error {
		if err := form.WriteField("label", strings.TrimSpace(up.Label)); err != nil {
			return err
		}
		if up.VersionNumber > 0 {
			return form.WriteField("version_number", strconv.Itoa(up.VersionNumber))
		}
		return nil
	}

	var v models.Version
	endpoint := fmt.Sprintf("/admin/songs/%d/versions", up.SongID)
	if err := c.postFile(ctx, endpoint, up.Path, fields, progress, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AllowedImageExtensions are the file types the backend accepts for the logo
var AllowedImageExtensions = []string{".png", ".jpg", ".jpeg"}

// MaxLogoSize is the largest logo the backend stores
const MaxLogoSize = 2 << 20

// CheckLogoFile validates a logo's extension and size before any network call
func CheckLogoFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return Required("file")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(AllowedImageExtensions, ext) {
		return &ValidationError{Field: "file", Message: "Only PNG and JPG images allowed"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat logo: %w", err)
	}
	if info.Size() > MaxLogoSize {
		return &ValidationError{Field: "file", Message: "Logo must be under 2MB"}
	}
	return nil
}

// UploadLogo replaces the custom logo and returns the updated settings
func (c *Client) UploadLogo(ctx context.Context, path string, progress Progress) (*models.DisplaySettings, error) {
	if err := CheckLogoFile(path); err != nil {
		return nil, err
	}
	var s models.DisplaySettings
	if err := c.postFile(ctx, "/admin/settings/logo", path, nil, progress, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// postFile streams a multipart form holding the extra fields and the file
// under "file", then decodes the JSON answer into out
func (c *Client) postFile(ctx context.Context, endpoint, path string, fields func(*multipart.Writer) error, progress Progress, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat upload: %w", err)
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(form, f, info.Size(), fields, progress))
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+endpoint, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func writeUploadForm(form *multipart.Writer, f *os.File, size int64, fields func(*multipart.Writer) error, progress Progress) error {
	if fields != nil {
		if err := fields(form); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", filepath.Base(f.Name()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, &progressReader{r: f, total: size, fn: progress}); err != nil {
		return err
	}
	return form.Close()
}

type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.fn(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}
