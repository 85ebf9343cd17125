package pipeline

import (
	"context"
	"errors"
	"sync"

	"ig_apify/models"
	"ig_apify/notify"
	"ig_apify/scraper"
)

type fakeStore struct {
	programs   []int64
	candidates []string
	eligible   int
	errorCodes map[string]bool // username -> code is null
	failOn     map[string]error

	programErr error
	findErr    error

	gotQuery    models.CandidateQuery
	profiles    []models.ProfileUpdate
	posts       []models.PostUpdate
	closed      bool
	programKind models.Kind
}

func (f *fakeStore) ProgramIDs(ctx context.Context, kind models.Kind) ([]int64, error) {
	f.programKind = kind
	return f.programs, f.programErr
}

func (f *fakeStore) FindCandidates(ctx context.Context, kind models.Kind, q models.CandidateQuery) ([]string, error) {
	f.gotQuery = q
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := f.candidates
	if q.Offset != nil {
		out = out[min(*q.Offset, len(out)):]
	}
	if q.Limit != nil {
		out = out[:min(*q.Limit, len(out))]
	}
	return out, nil
}

func (f *fakeStore) CountCandidates(ctx context.Context, kind models.Kind, programIDs []int64, w models.Window) (int, error) {
	return f.eligible, nil
}

func (f *fakeStore) IsScrapeErrorCodeNull(ctx context.Context, username string) (bool, error) {
	isNull, ok := f.errorCodes[username]
	if !ok {
		return false, nil
	}
	return isNull, nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (models.UpdateResult, error) {
	if err := f.failOn[u.Username]; err != nil {
		return models.UpdateResult{}, err
	}
	f.profiles = append(f.profiles, u)
	return models.UpdateResult{Affected: 1, Changed: 1}, nil
}

func (f *fakeStore) UpdatePost(ctx context.Context, u models.PostUpdate) (models.UpdateResult, error) {
	if err := f.failOn[u.PostURL]; err != nil {
		return models.UpdateResult{}, err
	}
	f.posts = append(f.posts, u)
	return models.UpdateResult{Affected: 1}, nil
}

func (f *fakeStore) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func connectTo(store Store) Connector {
	return func(ctx context.Context) (Store, error) { return store, nil }
}

func failConnect(err error) Connector {
	return func(ctx context.Context) (Store, error) { return nil, err }
}

type fakeRunner struct {
	runID string
	err   error
	calls [][]string
}

func (r *fakeRunner) RunTask(ctx context.Context, adapter scraper.ApifyTaskAdapter, urls []string) (string, error) {
	r.calls = append(r.calls, urls)
	return r.runID, r.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (n *fakeNotifier) Post(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *fakeNotifier) icons() []string {
	var out []string
	for _, m := range n.messages {
		out = append(out, m.Icon)
	}
	return out
}

type fakeObjects struct {
	data      map[string][]byte
	getErr    error
	deleteErr error
	deleted   []string
}

func (o *fakeObjects) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if o.getErr != nil {
		return nil, o.getErr
	}
	data, ok := o.data[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (o *fakeObjects) Delete(ctx context.Context, bucket, key string) error {
	o.deleted = append(o.deleted, bucket+"/"+key)
	return o.deleteErr
}

func testCampaign(kind models.Kind) Campaign {
	c := Campaign{
		Kind:         kind,
		Adapter:      scraper.NewInstagramTaskAdapter(string(kind)+"-task", "http://proxy"),
		CapMin:       80,
		CapMax:       100,
		DispatchName: string(kind) + "-apify-client",
		IngestName:   string(kind) + "-apify",
	}
	if kind == models.KindPost {
		c.CapMin, c.CapMax = 250, 300
	}
	return c
}
