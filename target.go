/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"fmt"
	"net/url"
)

// Sequence steps performed by a worker in every iteration
type Sequence string

const (
	GetPost  Sequence = "get+post"
	PostOnly Sequence = "post"
	GetOnly  Sequence = "get"
)

// RequestTarget endpoint under test
type RequestTarget struct {
	// BaseURL used as is for GET
	BaseURL string `yaml:"url"`
	// ResultSuffix appended to BaseURL for POST
	ResultSuffix string `yaml:"result_suffix"`
	// Sequence get+post by default
	Sequence Sequence `yaml:"sequence"`
	// ExpectJSONKey if set, successful POST body must be a JSON object with this key
	ExpectJSONKey string `yaml:"expect_json_key"`
}

func (t RequestTarget) Validate() (list []string) {
	if t.BaseURL == "" {
		list = append(list, "please set target url")
	} else if u, err := url.Parse(t.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		list = append(list, fmt.Sprintf("malformed target url: %q", t.BaseURL))
	}
	switch t.Sequence {
	case "", GetPost, PostOnly, GetOnly:
	default:
		list = append(list, fmt.Sprintf("unknown sequence %q, use get+post|post|get", t.Sequence))
	}
	return
}

func (t RequestTarget) GetURL() string {
	return t.BaseURL
}

func (t RequestTarget) PostURL() string {
	return t.BaseURL + t.ResultSuffix
}

func (t RequestTarget) doGet() bool {
	return t.Sequence == "" || t.Sequence == GetPost || t.Sequence == GetOnly
}

func (t RequestTarget) doPost() bool {
	return t.Sequence == "" || t.Sequence == GetPost || t.Sequence == PostOnly
}
