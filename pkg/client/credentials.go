// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Credentials is the connection bundle embedded in the shipped game
// binary. It is distributed base64-encoded to keep the raw values out of
// a casual strings dump. The encoding is reversible and is not a
// security boundary; the store must enforce its own access rules.
type Credentials struct {
	StoreAddr     string `json:"store_addr"`
	StoreUsername string `json:"store_username,omitempty"`
	StorePassword string `json:"store_password,omitempty"`
	StoreDB       int    `json:"store_db,omitempty"`
	KeyPrefix     string `json:"key_prefix,omitempty"`

	OAuthClientID string `json:"oauth_client_id"`
	AuthorizeURL  string `json:"authorize_url,omitempty"`
	RedirectURI   string `json:"redirect_uri"`
}

// Validate checks the fields a client cannot run without.
func (c *Credentials) Validate() error {
	if c == nil {
		return fmt.Errorf("credentials are required")
	}
	if c.StoreAddr == "" {
		return fmt.Errorf("store address is required")
	}
	if c.OAuthClientID == "" {
		return fmt.Errorf("oauth client ID is required")
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("redirect URI is required")
	}
	return nil
}

// EncodeCredentials serializes credentials for embedding in a build.
func EncodeCredentials(creds *Credentials) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCredentials reverses EncodeCredentials.
func DecodeCredentials(encoded string) (*Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return &creds, nil
}
