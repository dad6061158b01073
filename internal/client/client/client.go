// Package client implements the HTTP client for the MediaVault API, with
// token storage and transparent access token refresh.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/api"
	"github.com/dmitrijs2005/mediavault/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// LoggedIn reports whether the client holds an access token.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

func (c *Client) setTokens(pair api.TokenPairResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
}

func (c *Client) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// Logout drops the stored tokens.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
}

// apiError converts a non-2xx response body into a typed error.
func apiError(resp *http.Response) error {
	var e api.Error
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code == "" {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %w", e.Message, api.ErrorFromCode(e.Code))
}

// do sends the request, retrying once after a token refresh when the access
// token has expired.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	resp, err := c.send(ctx, build)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	var e api.Error
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if json.Unmarshal(body, &e) != nil || e.Code != api.CodeTokenExpired {
		if e.Code == "" {
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s: %w", e.Message, api.ErrorFromCode(e.Code))
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, build)
}

func (c *Client) send(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	req, err := build()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	if token, _ := c.tokens(); token != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
	}
	return c.http.Do(req)
}

// doJSON issues a JSON request and decodes a JSON response into out
// (in and out may each be nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}

	resp, err := c.do(ctx, func() (*http.Request, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequest(method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- auth ---

func (c *Client) Register(ctx context.Context, username string, salt, verifier []byte) (string, error) {
	var out api.RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/register", api.RegisterRequest{
		UserName: username, Salt: salt, Verifier: verifier,
	}, &out)
	return out.UserID, err
}

func (c *Client) GetSalt(ctx context.Context, username string) ([]byte, error) {
	var out api.SaltResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/salt", api.SaltRequest{UserName: username}, &out)
	return out.Salt, err
}

func (c *Client) Login(ctx context.Context, username string, verifier []byte) error {
	var out api.TokenPairResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", api.LoginRequest{
		UserName: username, Verifier: verifier,
	}, &out); err != nil {
		return err
	}
	c.setTokens(out)
	return nil
}

func (c *Client) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return common.ErrorUnauthorized
	}
	var out api.TokenPairResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/refresh", api.RefreshRequest{RefreshToken: refresh}, &out); err != nil {
		return err
	}
	c.setTokens(out)
	return nil
}

// --- key registry ---

func (c *Client) PublishKeys(ctx context.Context, wrapPEM, signPEM []byte) (*api.KeysResponse, error) {
	var out api.KeysResponse
	err := c.doJSON(ctx, http.MethodPut, "/api/keys", api.PublishKeysRequest{
		WrapPublicKey: wrapPEM, SignPublicKey: signPEM,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetKeys(ctx context.Context, userID string) (*api.KeysResponse, error) {
	var out api.KeysResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/"+userID+"/keys", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- media items ---

// UploadItem streams content through the multipart endpoint. The content is
// buffered into the multipart body as-is; it must already be encrypted.
func (c *Client) UploadItem(ctx context.Context, title, description, digest string, signature, wrappedKey []byte, content io.Reader) (*api.MediaItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField(api.UploadFieldTitle, title)
	_ = mw.WriteField(api.UploadFieldDescr, description)
	_ = mw.WriteField(api.UploadFieldDigest, digest)
	_ = mw.WriteField(api.UploadFieldSignature, base64.StdEncoding.EncodeToString(signature))
	_ = mw.WriteField(api.UploadFieldWrappedKey, base64.StdEncoding.EncodeToString(wrappedKey))
	fw, err := mw.CreateFormFile(api.UploadFieldContent, title)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	body := buf.Bytes()

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/items", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}
	var item api.MediaItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) ListItems(ctx context.Context) ([]api.MediaItem, error) {
	var out []api.MediaItem
	err := c.doJSON(ctx, http.MethodGet, "/api/items", nil, &out)
	return out, err
}

func (c *Client) MyItems(ctx context.Context) ([]api.MediaItem, error) {
	var out []api.MediaItem
	err := c.doJSON(ctx, http.MethodGet, "/api/items/my", nil, &out)
	return out, err
}

func (c *Client) GetItem(ctx context.Context, itemID string) (*api.MediaItem, error) {
	var out api.MediaItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/items/"+itemID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download returns the ciphertext stream of an item. The caller must close
// the reader.
func (c *Client) Download(ctx context.Context, itemID string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+"/api/items/"+itemID+"/content", nil)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

func (c *Client) VerifyItem(ctx context.Context, itemID string) (*api.VerifyResponse, error) {
	var out api.VerifyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/items/"+itemID+"/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- access requests ---

func (c *Client) OpenRequest(ctx context.Context, itemID string) (*api.AccessRequest, error) {
	var out api.AccessRequest
	if err := c.doJSON(ctx, http.MethodPost, "/api/items/"+itemID+"/requests", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) IncomingRequests(ctx context.Context) ([]api.AccessRequest, error) {
	var out []api.AccessRequest
	err := c.doJSON(ctx, http.MethodGet, "/api/requests/incoming", nil, &out)
	return out, err
}

func (c *Client) OutgoingRequests(ctx context.Context) ([]api.AccessRequest, error) {
	var out []api.AccessRequest
	err := c.doJSON(ctx, http.MethodGet, "/api/requests/outgoing", nil, &out)
	return out, err
}

func (c *Client) RequesterKey(ctx context.Context, requestID string) (*api.KeysResponse, error) {
	var out api.KeysResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/requests/"+requestID+"/requester-key", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Approve(ctx context.Context, requestID string, wrappedKey []byte) error {
	return c.doJSON(ctx, http.MethodPost, "/api/requests/"+requestID+"/approve", api.ApproveRequest{WrappedKey: wrappedKey}, nil)
}

func (c *Client) Reject(ctx context.Context, requestID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/requests/"+requestID+"/reject", nil, nil)
}

func (c *Client) QueryAccess(ctx context.Context, itemID string) (*api.AccessResponse, error) {
	var out api.AccessResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/items/"+itemID+"/access", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
