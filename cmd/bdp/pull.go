package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/cache"
	"github.com/bdp-project/bdp/internal/client"
	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/journal"
	"github.com/bdp-project/bdp/internal/manifest"
	"github.com/bdp-project/bdp/internal/pull"
	"github.com/bdp-project/bdp/internal/resolve"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Resolve bdp.yml, regenerate bdl.lock, and fetch every source into the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runPull(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(ctx context.Context) error {
	doc, err := loadManifestDoc()
	if err != nil {
		return err
	}

	lock, err := registry.Resolve(ctx, toResolveRequest(doc))
	if err != nil {
		return err
	}
	if err := manifest.WriteLockfile(lockfilePath(), lock); err != nil {
		return err
	}

	j := journal.Open(cacheStore.DB())
	orchestrator := &pull.Orchestrator{
		Cache:       cacheStore,
		Journal:     j,
		MachineID:   cfg.Actor,
		Parallelism: cfg.PullParallelism,
		ResolveURL:  downloadURLResolver,
	}

	report, err := orchestrator.Pull(ctx, lock)
	if err != nil {
		return err
	}

	if jsonOutput {
		type status struct {
			Spec  string `json:"spec"`
			Error string `json:"error,omitempty"`
		}
		out := make([]status, len(report.Statuses))
		for i, s := range report.Statuses {
			st := status{Spec: s.Entry.Spec}
			if s.Err != nil {
				st.Error = s.Err.Error()
			}
			out[i] = st
		}
		outputJSON(map[string]any{"sources": out, "failed": report.Failed()})
	} else {
		for _, s := range report.Statuses {
			label := fmt.Sprintf("%s (%s)", s.Entry.Spec, humanize.Bytes(uint64(s.Entry.SizeBytes)))
			if s.Err != nil {
				fmt.Println(clistyle.StatusLine(false, false, label+": "+s.Err.Error()))
			} else {
				fmt.Println(clistyle.StatusLine(true, false, label))
			}
		}
	}

	if report.Failed() {
		return bdperr.New(bdperr.KindInternal, "one or more sources failed to pull")
	}
	return nil
}

func toResolveRequest(doc *manifest.Document) client.ResolveRequest {
	req := client.ResolveRequest{Name: doc.Name, Version: doc.Version}
	for _, e := range doc.Sources {
		req.Sources = append(req.Sources, client.ResolveManifestEntry{Spec: e.Spec})
	}
	for _, e := range doc.Tools {
		req.Tools = append(req.Tools, client.ResolveManifestEntry{Spec: e.Spec})
	}
	return req
}

// downloadURLResolver streams from the presigned URL the server's /resolve
// response already attached to each lockfile entry, retrying transient
// failures with exponential backoff (spec.md §4.12's presigned-download
// retry, cenkalti/backoff/v4 as the teacher's C4 ingestion retry also uses).
func downloadURLResolver(ctx context.Context, entry resolve.LockEntry) (cache.Fetcher, error) {
	return func(ctx context.Context, req cache.FetchRequest) (io.ReadCloser, error) {
		if entry.DownloadURL == "" {
			return nil, bdperr.New(bdperr.KindNotFound, "no download URL resolved for "+entry.Spec)
		}

		var body io.ReadCloser
		op := func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.DownloadURL, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := http.DefaultClient.Do(httpReq)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return fmt.Errorf("download %s: server status %d", entry.Spec, resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				resp.Body.Close()
				return backoff.Permanent(fmt.Errorf("download %s: status %d", entry.Spec, resp.StatusCode))
			}
			body = resp.Body
			return nil
		}

		bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(5*time.Second),
		), 3)
		if err := backoff.Retry(op, bo); err != nil {
			return nil, bdperr.Wrap(bdperr.KindNetworkError, err, "download "+entry.Spec)
		}
		return body, nil
	}, nil
}
