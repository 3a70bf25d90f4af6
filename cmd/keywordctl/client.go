package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const identityHeader = "X-Auth-Email"

func runSearch(apiURL, keyword, email string, out io.Writer) error {
	if keyword == "" {
		return fmt.Errorf("keyword cannot be empty")
	}
	body, _ := json.Marshal(map[string]string{"keyword": keyword})
	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(identityHeader, email)
	}
	return doRequest(req, out)
}

func runSuggest(apiURL, query string, out io.Writer) error {
	u := apiURL + "/api/search/suggestions?q=" + url.QueryEscape(query)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return doRequest(req, out)
}

func runHistory(apiURL, email string, limit int, out io.Writer) error {
	u := fmt.Sprintf("%s/api/queries?limit=%d", apiURL, limit)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(identityHeader, email)
	return doRequest(req, out)
}

func doRequest(req *http.Request, out io.Writer) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
