package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type eventStoreFake struct {
	appended  []domain.ClaimEvent
	appendErr error
	byRef     map[string][]domain.ClaimEvent
	summaries []domain.ClaimSummary
	listErr   error
}

func (f *eventStoreFake) Append(_ context.Context, event *domain.ClaimEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	event.ID = int64(len(f.appended) + 1)
	f.appended = append(f.appended, *event)
	return nil
}

func (f *eventStoreFake) ListByReference(_ context.Context, claimReference string) ([]domain.ClaimEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byRef[claimReference], nil
}

func (f *eventStoreFake) ListSummaries(context.Context) ([]domain.ClaimSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *eventStoreFake) lastEvent() domain.ClaimEvent {
	if len(f.appended) == 0 {
		return domain.ClaimEvent{}
	}
	return f.appended[len(f.appended)-1]
}

type storageFake struct {
	objects map[string][]byte
	saveErr error
	openErr error
	saved   []string
	opened  []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, loc domain.ObjectLocation, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[loc.URI()] = body
	f.saved = append(f.saved, loc.URI())
	return nil
}

func (f *storageFake) Open(_ context.Context, loc domain.ObjectLocation) (io.ReadCloser, error) {
	f.opened = append(f.opened, loc.URI())
	if f.openErr != nil {
		return nil, f.openErr
	}
	body, ok := f.objects[loc.URI()]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

type extractionFake struct {
	submitErr error
	jobs      []domain.ExtractionJob
	routings  []domain.RoutingTargets
}

func (f *extractionFake) SubmitJob(_ context.Context, job domain.ExtractionJob, routing domain.RoutingTargets) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.jobs = append(f.jobs, job)
	f.routings = append(f.routings, routing)
	return nil
}

type agentFake struct {
	response string
	err      error
	sessions []string
	prompts  []string
}

func (f *agentFake) Invoke(_ context.Context, sessionID, prompt string) (string, error) {
	f.sessions = append(f.sessions, sessionID)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type locatorFake struct {
	loc   domain.ObjectLocation
	err   error
	calls int
}

func (f *locatorFake) Locate(context.Context, domain.Notification) (domain.ObjectLocation, error) {
	f.calls++
	if f.err != nil {
		return domain.ObjectLocation{}, f.err
	}
	return f.loc, nil
}

type verifierFake struct {
	outcome domain.VerificationOutcome
	err     error
	refs    []string
	locs    []domain.ObjectLocation
}

func (f *verifierFake) Invoke(_ context.Context, claimReference string, result domain.ObjectLocation) (domain.VerificationOutcome, error) {
	f.refs = append(f.refs, claimReference)
	f.locs = append(f.locs, result)
	if f.err != nil {
		return domain.VerificationOutcome{}, f.err
	}
	return f.outcome, nil
}

func objectCreated(bucket, key string) domain.Notification {
	return domain.Notification{
		Kind: domain.NotificationObjectCreated,
		ObjectCreated: &domain.ObjectCreatedNotification{
			Bucket: bucket,
			Key:    key,
		},
	}
}

func jobCompleted(status domain.JobStatus, inputKey, outputBucket, outputName string) domain.Notification {
	return domain.Notification{
		Kind: domain.NotificationJobCompleted,
		JobCompleted: &domain.JobCompletedNotification{
			JobStatus:      status,
			InputObjectKey: inputKey,
			OutputBucket:   outputBucket,
			OutputName:     outputName,
		},
	}
}
