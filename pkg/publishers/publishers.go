package publishers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Exactly the block
// matching Type is read; the others are ignored.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkConfig is implemented by every type-specific block.
type sinkConfig interface {
	normalize()
	validate() error
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SQSPublisherConfig) validate() error {
	return requireFields("sqs", map[string]string{"uri": c.QueueURL, "region": c.Region})
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SNSPublisherConfig) validate() error {
	return requireFields("sns", map[string]string{"topic_arn": c.TopicARN, "region": c.Region})
}

func (c *PubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *PubSubPublisherConfig) validate() error {
	return requireFields("pubsub", map[string]string{"project_id": c.ProjectID, "topic": c.Topic})
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) validate() error {
	return requireFields("http", map[string]string{"url": c.URL})
}

// requireFields names every empty field of a block.
func requireFields(block string, fields map[string]string) error {
	var missing []string
	for name, val := range fields {
		if val == "" {
			missing = append(missing, block+"."+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%s is required", strings.Join(missing, " and "))
}

// sink returns the block selected by Type. The block is copied so that
// normalizing never writes through to the caller's config.
func (cfg *PublisherConfig) sink() (sinkConfig, error) {
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS != nil {
			c := *cfg.SQS
			cfg.SQS = &c
			return cfg.SQS, nil
		}
	case TypeSNS:
		if cfg.SNS != nil {
			c := *cfg.SNS
			cfg.SNS = &c
			return cfg.SNS, nil
		}
	case TypePubSub:
		if cfg.PubSub != nil {
			c := *cfg.PubSub
			cfg.PubSub = &c
			return cfg.PubSub, nil
		}
	case TypeHTTP:
		if cfg.HTTP != nil {
			c := *cfg.HTTP
			cfg.HTTP = &c
			return cfg.HTTP, nil
		}
	case "":
		return nil, errors.New("type is required")
	default:
		// Unknown types are resolved by the builder registry.
		return nil, nil
	}
	return nil, fmt.Errorf("%s config block is required", cfg.Type)
}

// prepare normalizes cfg and checks it is complete.
func prepare(cfg PublisherConfig) (PublisherConfig, error) {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.ID == "" {
		return cfg, errors.New("id is required")
	}
	sc, err := cfg.sink()
	if err != nil {
		return cfg, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	if sc != nil {
		sc.normalize()
		if err := sc.validate(); err != nil {
			return cfg, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
	}
	return cfg, nil
}

func validatePublisherConfig(cfg PublisherConfig) error {
	_, err := prepare(cfg)
	return err
}

// ConfigRegistry holds validated publisher entries in file order.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// NewConfigRegistry validates cfgs and rejects duplicate ids.
func NewConfigRegistry(cfgs []PublisherConfig) (*ConfigRegistry, error) {
	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(cfgs)),
		idx:        make(map[string]int, len(cfgs)),
	}
	for i, raw := range cfgs {
		cfg, err := prepare(raw)
		if err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// LoadRegistry reads a YAML or JSON publishers file. Unknown keys are
// rejected so a misspelled option fails at startup.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if err := decodeStrict(raw, filepath.Ext(path), &file); err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}
	return NewConfigRegistry(file.Publishers)
}

func decodeStrict(raw []byte, ext string, out any) error {
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every configured publisher.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the publishers whose enabled flag is unset or true.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
