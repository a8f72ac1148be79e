package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-fetch/internal/app"
	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
	"github.com/samvad-hq/samvad-fetch/pkg/transport"
)

func requestCmd(runner *app.Runner, method string) *cobra.Command {
	var (
		headers  []string
		fields   []string
		dataFile string
		form     []string
		files    []string
		options  []string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: "Send a " + method + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hdrs, err := app.ParseHeaders(headers)
			if err != nil {
				return err
			}
			opts, err := parseOptions(options)
			if err != nil {
				return err
			}

			data, cleanup, err := buildPayload(fields, dataFile, form, files)
			if err != nil {
				return err
			}
			defer cleanup()

			call := app.Call{Method: method, URL: args[0], Data: data, Headers: hdrs, Options: opts}
			if dryRun {
				url, reqOpts, err := runner.Build(call)
				if err != nil {
					return err
				}
				return printJSON(cmd, describe(url, reqOpts))
			}

			result, err := runner.Execute(cmd.Context(), call)
			if he, ok := transport.AsHTTPError(err); ok {
				_ = printJSON(cmd, map[string]any{"status": he.Status, "response": he.Response})
				return err
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header (Name: value)")
	cmd.Flags().StringArrayVarP(&fields, "data", "d", nil, "data field (key=value), repeat a key for a sequence")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "YAML or JSON mapping used as request data")
	cmd.Flags().StringArrayVar(&form, "form", nil, "multipart text field (key=value)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "multipart file part (field=@path)")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "pass-through request option (key=value); timeout takes a duration such as 5s or bare seconds")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the computed request instead of sending it")
	return cmd
}

func buildPayload(fields []string, dataFile string, form, files []string) (httpclient.Payload, func(), error) {
	noop := func() {}
	usesForm := len(form) > 0 || len(files) > 0
	usesData := len(fields) > 0 || dataFile != ""

	switch {
	case usesForm && usesData:
		return nil, noop, fmt.Errorf("--form/--file cannot be combined with --data/--data-file")
	case usesForm:
		f, opened, err := app.BuildForm(form, files)
		if err != nil {
			return nil, noop, err
		}
		return f, func() {
			for _, file := range opened {
				_ = file.Close()
			}
		}, nil
	case dataFile != "":
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, noop, fmt.Errorf("read data file: %w", err)
		}
		v, err := app.ParseData(raw)
		if err != nil {
			return nil, noop, err
		}
		extra, err := app.ParseFields(fields)
		if err != nil {
			return nil, noop, err
		}
		return append(v, extra...), noop, nil
	case len(fields) > 0:
		v, err := app.ParseFields(fields)
		return v, noop, err
	}
	return nil, noop, nil
}

func parseOptions(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q (want key=value)", p)
		}
		out[key] = val
	}
	return out, nil
}

func describe(url string, opts httpclient.Options) map[string]any {
	out := map[string]any{
		"url":     url,
		"method":  opts.Method,
		"headers": opts.Headers,
	}
	switch b := opts.Body.(type) {
	case httpclient.JSONBody:
		out["body"] = json.RawMessage(b)
	case *httpclient.Form:
		out["form_fields"] = b.Fields()
		out["form_files"] = len(b.Files())
	}
	if len(opts.Extra) > 0 {
		out["options"] = opts.Extra
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
