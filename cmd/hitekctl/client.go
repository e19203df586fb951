package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// client talks to the lookup service HTTP API.
type client struct {
	http *resty.Client
}

func newClient(apiURL, caller, token string) *client {
	c := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(30 * time.Second)
	if caller != "" {
		c.SetHeader("X-Caller-ID", caller)
	}
	if token != "" {
		c.SetHeader("X-Relay-Token", token)
	}
	return &client{http: c}
}

// get issues a GET and copies the body to out.
func (c *client) get(path string, params map[string]string, out io.Writer) error {
	resp, err := c.http.R().SetQueryParams(params).SetDoNotParseResponse(true).Get(path)
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()
	if resp.StatusCode() != http.StatusOK {
		data, _ := io.ReadAll(body)
		return fmt.Errorf("http %d: %s", resp.StatusCode(), string(data))
	}
	_, err = io.Copy(out, body)
	return err
}

func (c *client) lookup(number string, out io.Writer) error {
	if number == "" {
		return fmt.Errorf("number cannot be empty")
	}
	return c.get("/api/lookup", map[string]string{"number": number}, out)
}

func (c *client) search(q, kind string, out io.Writer) error {
	if q == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return c.get("/api/search", map[string]string{"q": q, "kind": kind}, out)
}

func (c *client) stats(out io.Writer) error {
	return c.get("/api/stats", nil, out)
}

func (c *client) exportAudit(out io.Writer) error {
	return c.get("/api/admin/audit", nil, out)
}

func (c *client) clearAudit() error {
	resp, err := c.http.R().Delete("/api/admin/audit")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type commandResult struct {
	Replies []string `json:"replies"`
}

func (c *client) command(caller, text string, out io.Writer) error {
	var res commandResult
	resp, err := c.http.R().
		SetBody(map[string]string{"caller_id": caller, "text": text}).
		SetResult(&res).
		Post("/api/commands")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	for _, r := range res.Replies {
		if _, err := fmt.Fprintln(out, r); err != nil {
			return err
		}
	}
	return nil
}
