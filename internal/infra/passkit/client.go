package passkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pass-app/internal/domain/passes"
)

const DefaultAPIURL = "https://api.pub1.passkit.io/distribution/smartpasslink"

type Config struct {
	APIURL    string
	Token     string
	ProgramID string
	ClassID   string
	Timeout   time.Duration
}

// Client issues smart pass links.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type person struct {
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

type issueBody struct {
	ExternalID string `json:"externalId"`
	Expiry     string `json:"expiry"`
	ProgramID  string `json:"programId,omitempty"`
	ClassID    string `json:"classId,omitempty"`
	Tier       string `json:"tier"`
	Person     person `json:"person"`
}

type issueResponse struct {
	PassID       string `json:"passId"`
	ID           string `json:"id"`
	SmartLinkURL string `json:"smartLinkUrl"`
	URL          string `json:"url"`
	Error        string `json:"error"`
}

// Issue asks PassKit for a pass keyed by the derived pass id. Any
// transport, status or decoding problem is returned wrapped in ErrIssuer.
func (c *Client) Issue(ctx context.Context, req passes.IssueRequest) (passes.IssuedPass, error) {
	body, err := json.Marshal(issueBody{
		ExternalID: req.PassID,
		Expiry:     req.Expiry.UTC().Format(time.RFC3339Nano),
		ProgramID:  c.cfg.ProgramID,
		ClassID:    c.cfg.ClassID,
		Tier:       req.Tier,
		Person: person{
			DisplayName:  req.HolderName,
			EmailAddress: req.Email,
			MobileNumber: req.Phone,
		},
	})
	if err != nil {
		return passes.IssuedPass{}, fmt.Errorf("%w: encode request: %v", passes.ErrIssuer, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return passes.IssuedPass{}, fmt.Errorf("%w: build request: %v", passes.ErrIssuer, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return passes.IssuedPass{}, fmt.Errorf("%w: request failed: %v", passes.ErrIssuer, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return passes.IssuedPass{}, fmt.Errorf("%w: read response: %v", passes.ErrIssuer, err)
	}

	var out issueResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return passes.IssuedPass{}, fmt.Errorf("%w: status %d: %s", passes.ErrIssuer, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return passes.IssuedPass{}, fmt.Errorf("%w: decode response: %v", passes.ErrIssuer, decodeErr)
	}

	issued := passes.IssuedPass{
		IssuerID: firstNonEmpty(out.PassID, out.ID),
		LinkURL:  firstNonEmpty(out.SmartLinkURL, out.URL),
	}
	if issued.IssuerID == "" || issued.LinkURL == "" {
		return passes.IssuedPass{}, fmt.Errorf("%w: response missing id or link", passes.ErrIssuer)
	}
	return issued, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
