// Package ipfs pins files through the Pinata API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/web3hire/web3hire-be/internal/apperr"
)

const pinEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// Client talks to the Pinata pinning service.
type Client struct {
	jwt     string
	gateway string
	http    *http.Client
}

// New creates a Pinata client. An empty jwt disables pinning and returns
// nil; callers treat a nil client as "IPFS not configured".
func New(jwt, gateway string) *Client {
	if jwt == "" {
		return nil
	}
	return &Client{
		jwt:     jwt,
		gateway: strings.TrimRight(gateway, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile uploads a file and returns its IPFS hash. fileType lands in the
// pin's metadata keyvalues (e.g. "resume", "deliverable").
func (c *Client) PinFile(ctx context.Context, fileName, fileType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return "", apperr.Upstream("building upload form", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", apperr.Upstream("reading upload", err)
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"name": fileName,
		"keyvalues": map[string]string{
			"service": "web3hire",
			"type":    fileType,
		},
	})
	_ = form.WriteField("pinataMetadata", string(metadata))
	_ = form.WriteField("pinataOptions", `{"cidVersion":0}`)

	if err := form.Close(); err != nil {
		return "", apperr.Upstream("finalizing upload form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pinEndpoint, &body)
	if err != nil {
		return "", apperr.Upstream("building pin request", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Upstream("calling pinata", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperr.Upstream(fmt.Sprintf("pinata returned %d: %s", resp.StatusCode, msg), nil)
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", apperr.Upstream("decoding pinata response", err)
	}
	return pinned.IpfsHash, nil
}

// GatewayURL returns the public gateway URL for a pinned hash.
func (c *Client) GatewayURL(hash string) string {
	if c == nil {
		return hash
	}
	return c.gateway + "/" + hash
}
