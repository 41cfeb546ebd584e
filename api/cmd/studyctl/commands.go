package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"study-booster/api/internal/app"
	"study-booster/api/internal/config"
	"study-booster/api/internal/images"
	"study-booster/api/internal/logger"
	"study-booster/api/internal/util"
)

func rootCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:           "studyctl",
		Short:         "Validate, compress and analyze study images from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// логи в stderr, stdout остаётся под результат
			logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, false)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug | info | warn | error")
	cmd.AddCommand(validateCmd(), compressCmd(), analyzeCmd())
	return cmd
}

type inputFile struct {
	Name string
	Data []byte
	MIME string
}

// readInput читает файл; MIME берётся из флага или по сигнатуре.
func readInput(path, mime string) (inputFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return inputFile{}, err
	}
	if strings.TrimSpace(mime) == "" {
		mime = util.SniffMimeHTTP(b)
	}
	// DetectContentType добавляет "; charset=..." для текста
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return inputFile{Name: filepath.Base(path), Data: b, MIME: mime}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func validateCmd() *cobra.Command {
	var mime string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check file size and type against the configured limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			in, err := readInput(args[0], mime)
			if err != nil {
				return err
			}
			v := images.NewValidator(cfg.Images.MaxSize, cfg.Images.SupportedTypes)
			res := v.Validate(int64(len(in.Data)), in.MIME)

			out := struct {
				File string `json:"file"`
				Size int    `json:"size"`
				MIME string `json:"mimeType"`
				images.Validation
			}{in.Name, len(in.Data), in.MIME, res}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			return res.Err()
		},
	}
	cmd.Flags().StringVar(&mime, "mime", "", "declared MIME type (default: sniffed from content)")
	return cmd
}

func compressCmd() *cobra.Command {
	var (
		output string
		mime   string
		opts   images.Options
	)
	cmd := &cobra.Command{
		Use:   "compress <file>",
		Short: "Downscale and re-encode an image",
		Long:  "Downscale an image to fit the bounds and re-encode it. Without -o the data URI is printed to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0], mime)
			if err != nil {
				return err
			}
			encoded, err := images.Encode(bytes.NewReader(in.Data), in.MIME)
			if err != nil {
				return err
			}
			compressed, err := images.Compress(cmd.Context(), encoded, opts)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), compressed)
				return err
			}
			raw, _, err := util.DecodeBase64MaybeDataURL(compressed)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d → %d bytes (%s)\n", in.Name, len(in.Data), len(raw), util.DataURLSubtype(compressed))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "write the compressed image to this file")
	f.StringVar(&mime, "mime", "", "declared MIME type (default: sniffed from content)")
	f.IntVar(&opts.MaxWidth, "max-width", images.DefaultMaxWidth, "maximum width in pixels")
	f.IntVar(&opts.MaxHeight, "max-height", images.DefaultMaxHeight, "maximum height in pixels")
	f.Float64Var(&opts.Quality, "quality", images.DefaultQuality, "encoder quality 0..1")
	f.StringVar(&opts.Format, "format", images.DefaultFormat, "jpeg | png | webp")
	f.IntVar(&opts.MaxPixels, "max-pixels", images.DefaultMaxPixels, "reject images whose header declares more pixels")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		engine string
		mime   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the full pipeline and print the analysis as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if strict {
				cfg.StrictAnalysis = true
			}
			a, err := app.Build(cfg)
			if err != nil {
				return err
			}
			eng := a.Analyzer.Engine
			if engine != "" {
				if eng, err = a.Engines.GetEngine(engine); err != nil {
					return err
				}
			}

			in, err := readInput(args[0], mime)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rec, err := a.Pipeline.Optimize(ctx, images.Upload{
				Name:     in.Name,
				Size:     int64(len(in.Data)),
				MimeType: in.MIME,
				Body:     bytes.NewReader(in.Data),
			})
			if err != nil {
				return err
			}
			res, err := a.Analyzer.AnalyzeWith(ctx, eng, rec.Data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&engine, "engine", "", "gpt | gemini (default: ANALYSIS_ENGINE)")
	f.StringVar(&mime, "mime", "", "declared MIME type (default: sniffed from content)")
	f.BoolVar(&strict, "strict", false, "fail instead of returning mock results")
	return cmd
}
