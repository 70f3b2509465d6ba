package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/apicontract/contract"
	"github.com/kbukum/apicontract/httpclient"
	"github.com/kbukum/apicontract/manifest"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <contract>",
		Short: "Call a contract of the manifest and print the response",
		Example: `  contractctl call getUser --path id=42
  contractctl call listUsers --query page=2 --query q=ann
  contractctl call createUser --data @user.json --header X-Tenant=acme
  contractctl call uploadAvatar --path id=42 --form kind=photo --form file=@me.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseCallFlags(cmd.Flags(), cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			c, ok := manifest.Find(s.contracts, args[0])
			if !ok {
				return newUsageError("unknown contract %q, see contractctl check", args[0])
			}

			ctx := cmd.Context()
			metrics, err := s.startTelemetry(ctx)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = s.close(shutdownCtx)
			}()

			httpCfg := s.cfg.HTTP
			if httpCfg.Name == "" {
				httpCfg.Name = s.manifest.Name
			}
			opts := []httpclient.Option{httpclient.WithLogger(s.log.WithComponent("httpclient"))}
			if metrics != nil {
				opts = append(opts, httpclient.WithMetrics(metrics))
			}
			adapter, err := httpclient.New(httpCfg, opts...)
			if err != nil {
				return err
			}
			defer adapter.Close()

			factoryCfg := s.cfg.Contract
			factoryCfg.BaseURL = firstNonEmpty(factoryCfg.BaseURL, s.manifest.BaseURL)
			callArgs := req.args(adapter.Config())

			out := cmd.OutOrStdout()
			if contract.IsStream(c.Descriptor) {
				return callStream(ctx, adapter, factoryCfg, c.Descriptor, callArgs, out)
			}
			return callOnce(ctx, adapter, factoryCfg, c.Descriptor, callArgs, out)
		},
	}

	flags := cmd.Flags()
	flags.StringToString("path", nil, "path parameters as name=value")
	flags.StringArrayP("query", "q", nil, "query parameter as name=value, repeatable")
	flags.StringArrayP("header", "H", nil, "request header as Name=value, repeatable")
	flags.StringP("data", "d", "", "request body; @file reads a file and - reads stdin")
	flags.StringArrayP("form", "F", nil, "multipart field as name=value or name=@file, repeatable")
	cmd.MarkFlagsMutuallyExclusive("data", "form")
	flags.String("base-url", "", "base URL overriding configuration and manifest")
	flags.Duration("timeout", 0, "per-attempt timeout")
	return cmd
}

// callRequest holds the parsed flags of a call.
type callRequest struct {
	path    map[string]string
	query   url.Values
	headers map[string]string
	body    any
	baseURL string
	timeout time.Duration
}

func parseCallFlags(flags *pflag.FlagSet, stdin io.Reader) (*callRequest, error) {
	req := &callRequest{query: url.Values{}, headers: map[string]string{}}

	var err error
	if req.path, err = flags.GetStringToString("path"); err != nil {
		return nil, err
	}
	query, _ := flags.GetStringArray("query")
	for _, kv := range query {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, newUsageError("--query %q: expected name=value", kv)
		}
		req.query.Add(k, v)
	}
	headers, _ := flags.GetStringArray("header")
	for _, kv := range headers {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, newUsageError("--header %q: expected Name=value", kv)
		}
		req.headers[k] = v
	}
	req.baseURL, _ = flags.GetString("base-url")
	req.timeout, _ = flags.GetDuration("timeout")

	data, _ := flags.GetString("data")
	if flags.Changed("data") {
		if req.body, err = readBody(data, stdin); err != nil {
			return nil, err
		}
	}
	if form, _ := flags.GetStringArray("form"); len(form) > 0 {
		if req.body, err = readForm(form); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// readForm builds a multipart body; values starting with @ upload a file.
func readForm(fields []string) (*httpclient.MultipartBody, error) {
	body := &httpclient.MultipartBody{Fields: map[string]string{}}
	for _, kv := range fields {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, newUsageError("--form %q: expected name=value", kv)
		}
		if !strings.HasPrefix(v, "@") {
			body.Fields[k] = v
			continue
		}
		data, err := os.ReadFile(v[1:])
		if err != nil {
			return nil, newUsageError("--form %s: %v", k, err)
		}
		body.Files = append(body.Files, httpclient.FileField{
			FieldName: k,
			FileName:  filepath.Base(v[1:]),
			Data:      data,
		})
	}
	return body, nil
}

// readBody sends valid JSON as JSON and anything else as text.
func readBody(data string, stdin io.Reader) (any, error) {
	var raw []byte
	switch {
	case data == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, newUsageError("--data: %v", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}
	raw = bytes.TrimSpace(raw)
	if json.Valid(raw) {
		return json.RawMessage(raw), nil
	}
	return string(raw), nil
}

func (r *callRequest) args(cfg httpclient.Config) contract.Args {
	opts := contract.Options{}
	if len(r.headers) > 0 {
		opts[cfg.HeadersKey] = r.headers
	}
	if r.timeout > 0 {
		opts[httpclient.OptionTimeout] = r.timeout
	}
	return contract.Args{
		PathParameters:  r.path,
		QueryParameters: r.query,
		Body:            r.body,
		Options:         opts,
		BaseURL:         r.baseURL,
	}
}

func callOnce(ctx context.Context, adapter *httpclient.Adapter, cfg contract.Config, d contract.Descriptor, args contract.Args, out io.Writer) error {
	factory, err := contract.NewFactory[*httpclient.Response](adapter, cfg)
	if err != nil {
		return err
	}
	resp, err := factory.Create(d)(ctx, args)
	if err != nil {
		return err
	}
	return writeResponse(out, d, resp)
}

func writeResponse(out io.Writer, d contract.Descriptor, resp *httpclient.Response) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if contract.IsJSONEncoded(d) || resp.MediaType() == "application/json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Body, "", "  "); err == nil {
			buf.WriteByte('\n')
			_, err = buf.WriteTo(out)
			return err
		}
	}
	_, err := out.Write(resp.Body)
	return err
}

func callStream(ctx context.Context, adapter *httpclient.Adapter, cfg contract.Config, d contract.Descriptor, args contract.Args, out io.Writer) error {
	factory, err := contract.NewFactory[*httpclient.StreamResponse](adapter.Stream(), cfg)
	if err != nil {
		return err
	}
	stream, err := factory.Create(d)(ctx, args)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if stream.SSE == nil {
		_, err := io.Copy(out, stream.Body)
		return err
	}
	for {
		ev, err := stream.SSE.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ev.Event != "" {
			if _, err := fmt.Fprintf(out, "[%s] ", ev.Event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out, ev.Data); err != nil {
			return err
		}
	}
}
