package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"sync"

	"github.com/meur/reviewhub/internal/models"
)

// CoverField is the multipart field name the API reads the image from.
const CoverField = "file"

// ProgressFunc receives the number of request body bytes sent so far and the
// total body size.
type ProgressFunc func(sent, total int64)

// UploadCover replaces a game's cover with the contents of r and returns the
// game as the API reports it afterwards.
func (c *Client) UploadCover(ctx context.Context, gameID int, filename string, r io.Reader, progress ProgressFunc) (*models.Game, error) {
	body, contentType, err := coverBody(filename, r)
	if err != nil {
		return nil, err
	}
	total := int64(body.Len())

	var reader io.Reader = body
	if progress != nil {
		reader = &progressReader{r: body, total: total, fn: progress}
	}

	path := fmt.Sprintf("/games/%d/cover", gameID)
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, reader)
	if err != nil {
		return nil, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	authed, err := c.authorize(req, authRequired)
	if err != nil {
		return nil, err
	}
	var out models.Game
	if err := c.send(req, path, authed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCover removes a game's cover. Any 2xx, 204 included, is success.
func (c *Client) DeleteCover(ctx context.Context, gameID int) error {
	path := fmt.Sprintf("/games/%d/cover", gameID)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	authed, err := c.authorize(req, authRequired)
	if err != nil {
		return err
	}
	return c.send(req, path, authed, nil)
}

// coverBody buffers the multipart form so its length is known up front,
// which is what makes progress reporting meaningful.
func coverBody(filename string, r io.Reader) (*bytes.Buffer, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read cover: %w", err)
	}

	partType := mime.TypeByExtension(filepath.Ext(filename))
	if partType == "" {
		partType = http.DetectContentType(data)
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, CoverField, filepath.Base(filename)))
	h.Set("Content-Type", partType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}

type progressReader struct {
	mu    sync.Mutex
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.fn(sent, p.total)
	}
	return n, err
}
