// Package dataplatform handles the streaming of dispatch results to
// Supabase: best-effort upload, with failures buffered on disk and retried
// on later upload rounds.
package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/powercore/repository"
	"github.com/cepro/powercore/supabase"
	"github.com/cepro/powercore/telemetry"
)

const (
	maxUploadAttempts = 5
	resultsTableName  = "dispatch_results"
)

// DataPlatform handles the streaming of dispatch results to Supabase.
// Put new results onto Results; the latest per namespace is uploaded on the
// next upload round, and only results whose upload fails are buffered on
// disk in a SQLite database for a later retry.
type DataPlatform struct {
	Results chan telemetry.Result

	// latest holds the most recent, not-yet-uploaded result per namespace
	latest map[string]telemetry.Result

	repository *repository.Repository
	supaClient *supabase.Client
}

func New(supabaseUrl string, supabaseAnonKey string, supabaseUserKey string, schema string, bufferRepositoryFilename string) (*DataPlatform, error) {

	supaClient, err := supabase.New(supabaseUrl, supabaseAnonKey, supabaseUserKey, schema)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	repo, err := repository.New(bufferRepositoryFilename)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	return &DataPlatform{
		Results:    make(chan telemetry.Result, 25), // a small buffer to allow things to catch up in case the upload / sqlite is slow
		latest:     make(map[string]telemetry.Result),
		repository: repo,
		supaClient: supaClient,
	}, nil
}

// Run loops forever waiting for dispatch results; when the upload ticker
// fires, the latest result per namespace is uploaded.
func (d *DataPlatform) Run(ctx context.Context, uploadInterval time.Duration) {

	// TODO: would be nice if this was "on the minute"
	uploadTicker := time.NewTicker(uploadInterval)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case result := <-d.Results:
			d.latest[result.Req().Namespace] = result

		case <-uploadTicker.C:

			attemptToProcessOld := true

			nFresh, err := d.processFresh()
			if err != nil {
				slog.Error("Failed to process fresh dispatch results", "error", err)
				attemptToProcessOld = false
			}

			nOld := 0
			// Only attempt to re-upload old results if the fresh results were successfully uploaded. This approach
			// prevents the 'upload attempt count' from being incremented regularly when the network is down (if the
			// network is down then the fresh results would fail to upload too).
			if attemptToProcessOld {
				nOld, err = d.processOld()
				if err != nil {
					slog.Error("Failed to process old dispatch results", "error", err)
				}
			}

			slog.Info("Finished supabase upload routine", "results_fresh", nFresh, "results_old", nOld)
		}
	}
}

// processFresh attempts to upload any new results. If the upload fails, the
// results are stored in an on-disk repository until they can be uploaded.
func (d *DataPlatform) processFresh() (int, error) {
	results := make([]telemetry.Result, 0, len(d.latest))
	for _, result := range d.latest {
		results = append(results, result)
	}
	d.latest = make(map[string]telemetry.Result) // start with a fresh map for future results

	if len(results) == 0 {
		return 0, nil
	}

	stored := make([]repository.StoredResult, len(results))
	for i, result := range results {
		stored[i] = repository.NewStoredResult(result)
	}

	uploadErr := d.supaClient.UploadReadings(convertResults(stored), resultsTableName)
	if uploadErr != nil {
		uploadErr = fmt.Errorf("upload failed: %w", uploadErr)
		if storeErr := d.repository.StoreResults(results); storeErr != nil {
			return 0, fmt.Errorf("%w: store results for later upload failed: %w", uploadErr, storeErr)
		}
		return 0, uploadErr
	}

	return len(results), nil
}

// processOld attempts to re-upload any stored results that have already
// failed an upload at least once. On success, they are deleted from the
// on-disk repository. On failure, the 'upload attempt count' is incremented.
func (d *DataPlatform) processOld() (int, error) {
	// Only attempt to upload a handful of old results at a time, in case there is a 'bad apple' causing batch
	// uploads to repeatedly fail.
	stored, err := d.repository.GetResults(25)
	if err != nil {
		return 0, fmt.Errorf("retrieve results: %w", err)
	}
	if len(stored) == 0 {
		return 0, nil
	}

	// Results that have repeatedly failed to upload are given up on rather
	// than retried forever.
	retry := make([]repository.StoredResult, 0, len(stored))
	expired := make([]repository.StoredResult, 0)
	for _, result := range stored {
		if result.UploadAttemptCount >= maxUploadAttempts {
			expired = append(expired, result)
		} else {
			retry = append(retry, result)
		}
	}
	if len(expired) > 0 {
		if deleteErr := d.repository.DeleteResults(expired); deleteErr != nil {
			return 0, fmt.Errorf("delete expired results: %w", deleteErr)
		}
		slog.Warn("Dropped dispatch results that exceeded the upload attempt limit", "n_results", len(expired), "limit", maxUploadAttempts)
	}
	if len(retry) == 0 {
		return 0, nil
	}

	uploadErr := d.supaClient.UploadReadings(convertResults(retry), resultsTableName)
	if uploadErr != nil {
		uploadErr = fmt.Errorf("upload failed: %w", uploadErr)
		if errInc := d.repository.IncrementUploadAttemptCount(retry); errInc != nil {
			return 0, fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return 0, uploadErr
	}

	if deleteErr := d.repository.DeleteResults(retry); deleteErr != nil {
		return 0, fmt.Errorf("delete results (%+v): %w", retry, deleteErr)
	}
	return len(retry), nil
}
