/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"bytes"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v3"
)

// RequestURLEnv env var with target base url, used when config has none
const RequestURLEnv = "REQUEST_URL"

// FileConfig yaml config file layout
type FileConfig struct {
	Run      RunConfig       `yaml:"run"`
	Target   RequestTarget   `yaml:"target"`
	Payloads []UploadPayload `yaml:"payloads"`
}

// NewFileConfig config with defaults for values where zero is meaningful
func NewFileConfig() *FileConfig {
	return &FileConfig{Run: RunConfig{MaxRetries: DefaultMaxRetries}}
}

// LoadConfig reads yaml config file, unknown keys are rejected
func LoadConfig(path string) (*FileConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*FileConfig, error) {
	fc := NewFileConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// ApplyEnv fills empty target url from RequestURLEnv
func (fc *FileConfig) ApplyEnv() {
	if fc.Target.BaseURL == "" {
		fc.Target.BaseURL = os.Getenv(RequestURLEnv)
	}
}

// NewRunner creates runner from file config
func (fc *FileConfig) NewRunner() (*Runner, error) {
	return NewRunner(&fc.Run, fc.Target, fc.Payloads...)
}
