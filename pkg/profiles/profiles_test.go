package profiles

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "profiles.yaml", `
profiles:
  - id: status
    url: " https://example.com/status "
  - id: order
    method: post
    url: https://example.com/orders
    body:
      sku: A-1
      qty: 2
    save:
      dir: ./out
      append_suffix: false
  - id: login
    method: POST
    url: https://example.com/login
    form:
      user: " gopher "
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(all))
	}

	status := all[0]
	if status.Method != "GET" || status.BodyFormat != BodyNone || status.URL != "https://example.com/status" {
		t.Fatalf("unexpected status profile %#v", status)
	}

	order, ok := reg.ByID("order")
	if !ok {
		t.Fatalf("order profile missing")
	}
	if order.Method != "POST" || order.BodyFormat != BodyJSON {
		t.Fatalf("unexpected order profile %#v", order)
	}
	body, ok := order.Body.(map[string]any)
	if !ok || body["sku"] != "A-1" {
		t.Fatalf("unexpected body %#v", order.Body)
	}
	if order.Save == nil || order.Save.Dir != "./out" || order.Save.AppendSuffixValue() {
		t.Fatalf("unexpected save config %#v", order.Save)
	}

	login, _ := reg.ByID("login")
	if login.BodyFormat != BodyForm || login.Form["user"] != "gopher" {
		t.Fatalf("unexpected login profile %#v", login)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "profiles.json", `{"profiles":[{"id":"a","url":"https://example.com","expect":"JSON"}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	p, ok := reg.ByID("a")
	if !ok || p.Expect != ExpectJSON {
		t.Fatalf("unexpected profile %#v", p)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "profiles: []\n",
		"duplicate":    "profiles:\n  - {id: a, url: u}\n  - {id: a, url: v}\n",
		"missing url":  "profiles:\n  - {id: a}\n",
		"get body":     "profiles:\n  - {id: a, url: u, body: {x: 1}}\n",
		"bad method":   "profiles:\n  - {id: a, url: u, method: DELETE}\n",
		"bad format":   "profiles:\n  - {id: a, url: u, method: POST, body_format: yaml, body: x}\n",
		"raw non str":  "profiles:\n  - {id: a, url: u, method: POST, body_format: raw, body: {x: 1}}\n",
		"form missing": "profiles:\n  - {id: a, url: u, method: PUT, body_format: form}\n",
		"save no dir":  "profiles:\n  - {id: a, url: u, save: {filename: x}}\n",
		"bad expect":   "profiles:\n  - {id: a, url: u, expect: xml}\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRegistry(writeFile(t, "p.yaml", raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := LoadRegistry(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveConfigDefaultsToAppendSuffix(t *testing.T) {
	var s *SaveConfig
	if !s.AppendSuffixValue() {
		t.Fatalf("nil save config should default to append suffix")
	}
	if !(&SaveConfig{Dir: "x"}).AppendSuffixValue() {
		t.Fatalf("unset append_suffix should default to true")
	}
}
