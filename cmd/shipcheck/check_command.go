package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shipcheck/internal/classifier"
	"shipcheck/internal/config"
	"shipcheck/internal/domain"
	"shipcheck/internal/preview"
	"shipcheck/internal/upload"
	"shipcheck/pkg/logger"
)

const (
	exitFailed     = 1
	exitCannotShip = 2
)

func newCheckCommand(logLevel *string) *cobra.Command {
	var (
		language string
		url      string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "check <image>",
		Short: "Upload a photo and print the shipping verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.Classifier.URL
			}

			log, err := logger.NewWithLevel(*logLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			candidate, err := readCandidate(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			previews := preview.NewMemoryStore("", preview.DefaultOptions, log)
			sess := upload.NewSession(
				classifier.NewClient(url, cfg.Classifier.Timeout, log),
				previews,
				upload.WithLogger(log),
			)
			defer sess.Close(ctx)

			if err := sess.SetLanguage(language); err != nil {
				return err
			}

			if err := sess.SelectFile(ctx, candidate); err != nil {
				log.Debug("Selection rejected", zap.Error(err))
				return report(cmd, sess.Snapshot(), asJSON)
			}

			fut, err := sess.Submit(ctx)
			if err != nil {
				return err
			}
			if _, err := fut.Wait(ctx); err != nil {
				log.Debug("Submission failed", zap.Error(err))
			}

			return report(cmd, sess.Snapshot(), asJSON)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", string(domain.DefaultLanguage), "Response language (en or ar)")
	cmd.Flags().StringVar(&url, "url", "", "Classification endpoint (defaults to CLASSIFIER_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")

	return cmd
}

func readCandidate(path string) (domain.Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Candidate{}, err
	}
	if info.IsDir() {
		return domain.Candidate{}, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	c := domain.Candidate{Name: name, Size: info.Size()}

	// Skip reading files that cannot pass the size check anyway.
	if info.Size() > domain.MaxImageSize {
		c.MediaType = mediaType(name, nil)
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Candidate{}, err
	}
	c.Content = data
	c.Size = int64(len(data))
	c.MediaType = mediaType(name, data)
	return c, nil
}

// mediaType declares a type the way a browser would: from the extension,
// falling back to content sniffing.
func mediaType(name string, data []byte) string {
	t := mime.TypeByExtension(filepath.Ext(name))
	if t == "" && data != nil {
		t = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func report(cmd *cobra.Command, snap domain.Snapshot, asJSON bool) error {
	if asJSON {
		if err := writeJSON(cmd, snap); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderSnapshot(snap, shouldColorize(cmd.OutOrStdout())))
	}

	switch {
	case snap.Verdict == nil:
		return &exitError{code: exitFailed}
	case !snap.Verdict.CanShip:
		return &exitError{code: exitCannotShip}
	}
	return nil
}
