// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package api

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

var clientTimeout = 5 * time.Second

// DoGet performs a GET against a running agent's endpoint and returns the
// response body.
func DoGet(addr, path string) ([]byte, error) {
	client := &http.Client{Timeout: clientTimeout}
	resp, err := client.Get(fmt.Sprintf("http://%s%s", addr, path))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return body, fmt.Errorf("status code %d on %s", resp.StatusCode, path)
	}
	return body, nil
}

// DoPost performs a POST against a running agent's endpoint
func DoPost(addr, path string) ([]byte, error) {
	client := &http.Client{Timeout: clientTimeout}
	resp, err := client.Post(fmt.Sprintf("http://%s%s", addr, path), "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return body, fmt.Errorf("status code %d on %s", resp.StatusCode, path)
	}
	return body, nil
}
