package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/samvad-hq/samvad-httpkit/internal/app"
	"github.com/samvad-hq/samvad-httpkit/internal/config"
	"github.com/samvad-hq/samvad-httpkit/internal/logger"
	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpkit/pkg/profiles"
)

// pairs collects repeated key/value flags such as -H and -q.
type pairs struct {
	sep    string
	values map[string]string
}

func (p *pairs) String() string {
	parts := make([]string, 0, len(p.values))
	for k, v := range p.values {
		parts = append(parts, k+p.sep+v)
	}
	return strings.Join(parts, ",")
}

func (p *pairs) Set(raw string) error {
	k, v, ok := strings.Cut(raw, p.sep)
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected key%svalue, got %q", p.sep, raw)
	}
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	return nil
}

type requestFlags struct {
	asJSON   bool
	asXML    bool
	data     string
	headers  pairs
	query    pairs
	form     pairs
	saveDir  string
	name     string
	noSuffix bool
}

func parseRequestFlags(cmd string, args []string, out io.Writer) (requestFlags, string, error) {
	rf := requestFlags{
		headers: pairs{sep: ":"},
		query:   pairs{sep: "="},
		form:    pairs{sep: "="},
	}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.BoolVar(&rf.asJSON, "json", false, "send -d as JSON (GET: ask for JSON)")
	fs.BoolVar(&rf.asXML, "xml", false, "convert the JSON given in -d to XML and send it")
	fs.StringVar(&rf.data, "d", "", "request body")
	fs.Var(&rf.headers, "H", "request header key:value (repeatable)")
	fs.Var(&rf.query, "q", "query parameter key=value (repeatable)")
	fs.Var(&rf.form, "f", "form field key=value (repeatable)")
	fs.StringVar(&rf.saveDir, "save", "", "save the response body into this directory")
	fs.StringVar(&rf.name, "name", "", "file name used with -save")
	fs.BoolVar(&rf.noSuffix, "no-suffix", false, "do not append a sniffed extension when saving")

	if err := fs.Parse(args); err != nil {
		return rf, "", err
	}
	if fs.NArg() != 1 {
		return rf, "", fmt.Errorf("%s expects exactly one URL", cmd)
	}
	if rf.asJSON && rf.asXML {
		return rf, "", fmt.Errorf("-json and -xml are mutually exclusive")
	}
	return rf, fs.Arg(0), nil
}

// buildProfile turns command line flags into a one-off request profile.
func buildProfile(cmd string, rf requestFlags, target string) (profiles.Profile, error) {
	p := profiles.Profile{
		ID:      "cli",
		Method:  strings.ToUpper(cmd),
		URL:     target,
		Headers: rf.headers.values,
		Query:   rf.query.values,
		Form:    rf.form.values,
	}

	switch {
	case p.Method == http.MethodGet:
		if rf.asJSON {
			p.Expect = profiles.ExpectJSON
		}
	case rf.asJSON || rf.asXML:
		var body any
		if err := sonic.UnmarshalString(rf.data, &body); err != nil {
			return p, fmt.Errorf("-d must hold JSON: %w", err)
		}
		p.Body = body
		p.BodyFormat = profiles.BodyJSON
		if rf.asXML {
			p.BodyFormat = profiles.BodyXML
		}
	case rf.data != "":
		p.Body = rf.data
		p.BodyFormat = profiles.BodyRaw
	case len(p.Form) > 0:
		p.BodyFormat = profiles.BodyForm
	}

	if rf.saveDir != "" {
		appendSuffix := !rf.noSuffix
		p.Save = &profiles.SaveConfig{Dir: rf.saveDir, Filename: rf.name, AppendSuffix: &appendSuffix}
	}

	reg, err := profiles.NewRegistry([]profiles.Profile{p})
	if err != nil {
		return p, err
	}
	return reg.All()[0], nil
}

func runRequest(ctx context.Context, cfg *config.Config, log logger.Logger, cmd string, args []string, stdout io.Writer) error {
	rf, target, err := parseRequestFlags(cmd, args, stdout)
	if err != nil {
		return err
	}
	p, err := buildProfile(cmd, rf, target)
	if err != nil {
		return err
	}

	client := app.NewDispatcher(cfg, log, nil)
	resp, err := p.Dispatch(ctx, client)
	if err != nil {
		return err
	}
	if err := printResponse(stdout, resp); err != nil {
		return err
	}

	if p.Save != nil {
		name, err := resp.Save(p.Save.Dir, p.Save.Filename, p.Save.AppendSuffixValue())
		if err != nil {
			return fmt.Errorf("save response: %w", err)
		}
		fmt.Fprintf(stdout, "saved %s\n", name)
	}
	return nil
}

func printResponse(w io.Writer, resp *httpclient.Response) error {
	fmt.Fprintf(w, "HTTP %d (%s)\n", resp.StatusCode(), resp.Format())
	if resp.IsEmpty() || len(resp.Content()) == 0 {
		return nil
	}
	if resp.Format() == httpclient.FormatUnknown {
		_, err := fmt.Fprintln(w, resp.String())
		return err
	}

	data, err := resp.Data()
	if err != nil {
		fmt.Fprintf(w, "decode failed: %v\n%s\n", err, resp.String())
		return nil
	}
	out, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("render data: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
