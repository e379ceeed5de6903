package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package profiles loads named request definitions from YAML/JSON files.

const (
	BodyNone = "none"
	BodyJSON = "json"
	BodyXML  = "xml"
	BodyForm = "form"
	BodyRaw  = "raw"

	ExpectJSON = "json"
)

// Profile describes one request the runner can dispatch.
type Profile struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Method     string            `json:"method" yaml:"method"`
	URL        string            `json:"url" yaml:"url"`
	BodyFormat string            `json:"body_format" yaml:"body_format"`
	Expect     string            `json:"expect" yaml:"expect"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	Query      map[string]string `json:"query" yaml:"query"`
	Form       map[string]string `json:"form" yaml:"form"`
	Body       any               `json:"body" yaml:"body"`
	Save       *SaveConfig       `json:"save" yaml:"save"`
}

// SaveConfig asks the runner to persist successful response bodies.
type SaveConfig struct {
	Dir          string `json:"dir" yaml:"dir"`
	Filename     string `json:"filename" yaml:"filename"`
	AppendSuffix *bool  `json:"append_suffix" yaml:"append_suffix"`
}

// AppendSuffixValue returns the append_suffix flag defaulting to true.
func (s *SaveConfig) AppendSuffixValue() bool {
	if s == nil || s.AppendSuffix == nil {
		return true
	}
	return *s.AppendSuffix
}

type configFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Registry holds validated profiles in file order.
type Registry struct {
	mu       sync.RWMutex
	profiles []Profile
	idx      map[string]Profile
}

// LoadRegistry loads profiles from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("profiles file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	parsed, err := parseProfiles(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}
	return NewRegistry(parsed.Profiles)
}

// NewRegistry sanitizes and validates profiles.
func NewRegistry(profiles []Profile) (*Registry, error) {
	reg := &Registry{
		profiles: make([]Profile, len(profiles)),
		idx:      make(map[string]Profile, len(profiles)),
	}
	for i := range profiles {
		p := sanitizeProfile(profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		reg.profiles[i] = p
		reg.idx[p.ID] = p
	}
	return reg, nil
}

func parseProfiles(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if cfg, err := unmarshalProfiles(d.name, data, d.fn); err == nil {
			return cfg, nil
		}
	}

	return configFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalProfiles(name string, data []byte, fn unmarshalFn) (configFile, error) {
	var cfg configFile
	if err := fn(data, &cfg); err != nil {
		return configFile{}, fmt.Errorf("decode %s profiles: %w", name, err)
	}
	return cfg, nil
}

func sanitizeProfile(p Profile) Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.URL = strings.TrimSpace(p.URL)
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
	if p.Method == "" {
		p.Method = http.MethodGet
	}
	p.Expect = strings.ToLower(strings.TrimSpace(p.Expect))
	p.BodyFormat = strings.ToLower(strings.TrimSpace(p.BodyFormat))
	if p.BodyFormat == "" {
		switch {
		case p.Body != nil:
			p.BodyFormat = BodyJSON
		case len(p.Form) > 0:
			p.BodyFormat = BodyForm
		default:
			p.BodyFormat = BodyNone
		}
	}
	p.Headers = sanitizeMap(p.Headers)
	p.Query = sanitizeMap(p.Query)
	p.Form = sanitizeMap(p.Form)

	if p.Save != nil {
		s := *p.Save
		s.Dir = strings.TrimSpace(s.Dir)
		s.Filename = strings.TrimSpace(s.Filename)
		p.Save = &s
	}
	return p
}

// sanitizeMap trims keys and drops entries with an empty key.
func sanitizeMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.URL == "" {
		return fmt.Errorf("url is required for profile %q", p.ID)
	}
	switch p.Method {
	case http.MethodGet:
		if p.BodyFormat != BodyNone {
			return fmt.Errorf("profile %q: GET requests cannot carry a %s body", p.ID, p.BodyFormat)
		}
	case http.MethodPost, http.MethodPut:
	default:
		return fmt.Errorf("profile %q: unsupported method %q", p.ID, p.Method)
	}

	switch p.BodyFormat {
	case BodyNone:
	case BodyJSON, BodyXML:
		if p.Body == nil {
			return fmt.Errorf("profile %q: body is required for %s body_format", p.ID, p.BodyFormat)
		}
	case BodyRaw:
		if _, ok := p.Body.(string); !ok {
			return fmt.Errorf("profile %q: raw body must be a string", p.ID)
		}
	case BodyForm:
		if len(p.Form) == 0 {
			return fmt.Errorf("profile %q: form is required for form body_format", p.ID)
		}
	default:
		return fmt.Errorf("profile %q: unsupported body_format %q", p.ID, p.BodyFormat)
	}

	if p.Expect != "" && p.Expect != ExpectJSON {
		return fmt.Errorf("profile %q: unsupported expect %q", p.ID, p.Expect)
	}
	if p.Save != nil && p.Save.Dir == "" {
		return fmt.Errorf("save.dir is required for profile %q", p.ID)
	}
	return nil
}

// ByID returns the profile with the given id.
func (r *Registry) ByID(id string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[id]
	return p, ok
}

// All returns all profiles in file order.
func (r *Registry) All() []Profile {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}
