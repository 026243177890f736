package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/workspace"
)

// Trace is an ordered, concurrency-safe log of collaborator calls.
type Trace struct {
	mu    sync.Mutex
	calls []string
}

// Add appends a call.
func (t *Trace) Add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (t *Trace) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// Count returns how many recorded calls equal call.
func (t *Trace) Count(call string) int {
	n := 0
	for _, c := range t.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

type getResponse struct {
	rec *workspace.Record
	err error
}

// ScriptedProvider replays scripted responses. Get responses are consumed
// in order; the last one repeats once the script is exhausted.
type ScriptedProvider struct {
	trace *Trace

	mu        sync.Mutex
	createRec *workspace.Record
	createErr error
	gets      []getResponse
	byName    map[string]*workspace.Record
	deleteErr error
	requests  []workspace.Request
}

// NewScriptedProvider returns a provider recording into trace.
func NewScriptedProvider(trace *Trace) *ScriptedProvider {
	if trace == nil {
		trace = &Trace{}
	}
	return &ScriptedProvider{trace: trace, byName: make(map[string]*workspace.Record)}
}

// CreateReturns scripts the Create response.
func (p *ScriptedProvider) CreateReturns(rec *workspace.Record, err error) *ScriptedProvider {
	p.createRec, p.createErr = rec, err
	return p
}

// GetSequence scripts successive Get records.
func (p *ScriptedProvider) GetSequence(recs ...*workspace.Record) *ScriptedProvider {
	for _, r := range recs {
		p.gets = append(p.gets, getResponse{rec: r})
	}
	return p
}

// GetFails scripts a failing Get.
func (p *ScriptedProvider) GetFails(err error) *ScriptedProvider {
	p.gets = append(p.gets, getResponse{err: err})
	return p
}

// Named registers rec for FindByName.
func (p *ScriptedProvider) Named(rec *workspace.Record) *ScriptedProvider {
	p.byName[rec.Name] = rec
	return p
}

// DeleteReturns scripts the Delete error.
func (p *ScriptedProvider) DeleteReturns(err error) *ScriptedProvider {
	p.deleteErr = err
	return p
}

// Requests returns the create requests received.
func (p *ScriptedProvider) Requests() []workspace.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]workspace.Request(nil), p.requests...)
}

// Create implements workspace.Provider.
func (p *ScriptedProvider) Create(_ context.Context, req workspace.Request) (*workspace.Record, error) {
	p.trace.Add("create %s", req.Name)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.createRec == nil {
		return nil, fmt.Errorf("no create response scripted")
	}
	rec := *p.createRec
	if rec.Name == "" {
		rec.Name = req.Name
	}
	return &rec, nil
}

// Get implements workspace.Provider.
func (p *ScriptedProvider) Get(_ context.Context, id string) (*workspace.Record, error) {
	p.trace.Add("get %s", id)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.gets) == 0 {
		return nil, fmt.Errorf("workspace %s: %w", id, workspace.ErrNotFound)
	}
	resp := p.gets[0]
	if len(p.gets) > 1 {
		p.gets = p.gets[1:]
	}
	if resp.err != nil {
		return nil, resp.err
	}
	rec := *resp.rec
	return &rec, nil
}

// FindByName implements workspace.Provider.
func (p *ScriptedProvider) FindByName(_ context.Context, name string) (*workspace.Record, error) {
	p.trace.Add("find %s", name)
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byName[name]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

// Delete implements workspace.Provider.
func (p *ScriptedProvider) Delete(_ context.Context, id string) error {
	p.trace.Add("delete %s", id)
	return p.deleteErr
}

// StaticDetector returns tokens from a list, one per call; the last token
// repeats.
type StaticDetector struct {
	mu     sync.Mutex
	tokens []change.Token
	err    error
}

// NewStaticDetector returns a detector yielding tokens in order.
func NewStaticDetector(tokens ...string) *StaticDetector {
	d := &StaticDetector{}
	for _, t := range tokens {
		d.tokens = append(d.tokens, change.Token(t))
	}
	return d
}

// Fail makes every Detect return err.
func (d *StaticDetector) Fail(err error) *StaticDetector {
	d.err = err
	return d
}

// Detect implements change.Detector.
func (d *StaticDetector) Detect(context.Context) (change.Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	if len(d.tokens) == 0 {
		return "", &workspace.TransientFetchError{Source: "static", Err: fmt.Errorf("no tokens")}
	}
	tok := d.tokens[0]
	if len(d.tokens) > 1 {
		d.tokens = d.tokens[1:]
	}
	return tok, nil
}

// RecordingConfigurator records each call into trace and returns err.
func RecordingConfigurator(trace *Trace, err error) configure.Func {
	return func(_ context.Context, target configure.Target) error {
		if err != nil {
			trace.Add("configure %s failed", target.Address)
			return err
		}
		trace.Add("configure %s ok", target.Address)
		return nil
	}
}
