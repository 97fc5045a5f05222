// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     session
// Description: Tests for the dictation session orchestrator
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msto63/cicero/internal/insert"
	"github.com/msto63/cicero/internal/stt"
	"github.com/msto63/cicero/internal/textproc"
)

type fakeRecorder struct {
	mu        sync.Mutex
	recording bool
	aborted   bool
	cleanups  int
	startErr  error
	stopErr   error
}

func (f *fakeRecorder) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.recording = true
	return nil
}

func (f *fakeRecorder) Stop() (string, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = false
	if f.stopErr != nil {
		return "", 0, f.stopErr
	}
	return "artifact.wav", time.Second, nil
}

func (f *fakeRecorder) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = false
	f.aborted = true
}

func (f *fakeRecorder) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
}

func (f *fakeRecorder) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

type fakeTranscriber struct {
	text    string
	err     error
	ready   bool
	release chan struct{} // nil transcribes immediately
}

func (f *fakeTranscriber) TranscribeFile(ctx context.Context, path string) (stt.Result, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		}
	}
	if f.err != nil {
		return stt.Result{}, f.err
	}
	return stt.Result{Text: f.text}, nil
}

func (f *fakeTranscriber) IsReady() bool { return f.ready }

type fakeProcessor struct {
	mu      sync.Mutex
	gotOpts textproc.Options
	gotText string
	result  string
}

func (f *fakeProcessor) Process(ctx context.Context, text string, opts textproc.Options) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotText = text
	f.gotOpts = opts
	if f.result != "" {
		return f.result
	}
	return text
}

type fakeInserter struct {
	mu       sync.Mutex
	inserted []string
	targets  []string
	copied   []string
	result   insert.Result

	// release, when set, blocks Insert until closed. The paste always
	// completes; a cancel cannot interrupt a running paste.
	release chan struct{}
}

func (f *fakeInserter) Insert(ctx context.Context, text, targetApp string) insert.Result {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, text)
	f.targets = append(f.targets, targetApp)
	return f.result
}

func (f *fakeInserter) CopyToClipboard(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied = append(f.copied, text)
	return nil
}

func (f *fakeInserter) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type historyEntry struct {
	raw, processed string
	wasProcessed   bool
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []historyEntry
	recent  []string
}

func (f *fakeHistory) AddAsync(raw, processed string, wasProcessed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, historyEntry{raw, processed, wasProcessed})
}

func (f *fakeHistory) RecentTexts(ctx context.Context, limit int) ([]string, error) {
	return f.recent, nil
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakePreparer struct {
	release chan struct{} // nil completes immediately
	err     error
}

func (f *fakePreparer) Prepare(ctx context.Context) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

type fakeScreen struct {
	text string
}

func (f *fakeScreen) Available() bool { return true }

func (f *fakeScreen) CaptureAndRecognize(context.Context) string { return f.text }

func runSession(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	o.Wait()
}

func TestVerbatimSession(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "嗯 会议 记录", ready: true}
	proc := &fakeProcessor{result: "会议 记录"}
	ins := &fakeInserter{}
	hist := &fakeHistory{}

	o := New(rec, tr, proc, ins, hist, nil, Config{Language: textproc.LangZH})
	runSession(t, o)

	if got := o.State().Phase; got != PhaseDone {
		t.Fatalf("phase = %s, want done", got)
	}
	if len(ins.inserted) != 1 || ins.inserted[0] != "会议 记录" {
		t.Errorf("inserted = %v", ins.inserted)
	}
	if proc.gotOpts.UseGeneration {
		t.Error("verbatim session must not use generation")
	}
	if hist.count() != 1 {
		t.Fatalf("history entries = %d", hist.count())
	}
	hist.mu.Lock()
	e := hist.entries[0]
	hist.mu.Unlock()
	if e.raw != "嗯 会议 记录" || e.processed != "会议 记录" || e.wasProcessed {
		t.Errorf("history entry = %+v", e)
	}
	if rec.cleanups != 1 {
		t.Errorf("artifact cleanups = %d, want 1", rec.cleanups)
	}
}

func TestBusyActivationRejected(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: true, release: make(chan struct{})}
	proc := &fakeProcessor{}
	ins := &fakeInserter{}

	o := New(rec, tr, proc, ins, nil, nil, Config{})
	ctx := context.Background()

	if err := o.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Session hangs in transcription, second activation must bounce
	if err := o.Start(ctx); err != ErrBusy {
		t.Fatalf("Start while busy = %v, want ErrBusy", err)
	}
	if o.State().Message != msgBusy {
		t.Errorf("message = %q, want busy hint", o.State().Message)
	}

	close(tr.release)
	o.Wait()

	// The running session was not disturbed
	if ins.insertCount() != 1 {
		t.Errorf("inserts = %d, want 1", ins.insertCount())
	}
	if got := o.State().Phase; got != PhaseDone {
		t.Errorf("phase = %s, want done", got)
	}
}

func TestBusyWhileRecordingRejected(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "x", ready: true}
	o := New(rec, tr, &fakeProcessor{}, &fakeInserter{}, nil, nil, Config{})

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Start(ctx); err != ErrBusy {
		t.Fatalf("second Start = %v, want ErrBusy", err)
	}
	if !rec.IsRecording() {
		t.Error("rejected activation must not stop the recording")
	}
}

func TestEmptyTranscriptResetsToIdle(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "   ", ready: true}
	ins := &fakeInserter{}
	hist := &fakeHistory{}

	o := New(rec, tr, &fakeProcessor{}, ins, hist, nil, Config{})
	runSession(t, o)

	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle", got)
	}
	if ins.insertCount() != 0 {
		t.Error("empty transcript must not insert")
	}
	if hist.count() != 0 {
		t.Error("empty transcript must not reach history")
	}
}

func TestCancelDuringTranscription(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: true, release: make(chan struct{})}
	ins := &fakeInserter{}
	hist := &fakeHistory{}

	o := New(rec, tr, &fakeProcessor{}, ins, hist, nil, Config{})
	ctx := context.Background()

	o.Start(ctx)
	o.Stop(ctx)
	o.Cancel()
	o.Wait()

	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle after cancel", got)
	}
	if ins.insertCount() != 0 {
		t.Error("cancelled session must not insert")
	}
	if hist.count() != 0 {
		t.Error("cancelled session must not reach history")
	}

	// A fresh session is unaffected
	tr.release = nil
	runSession(t, o)
	if ins.insertCount() != 1 {
		t.Errorf("inserts = %d, want 1 from the new session", ins.insertCount())
	}
}

func TestCancelDuringRecordingDiscards(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "x", ready: true}
	ins := &fakeInserter{}

	o := New(rec, tr, &fakeProcessor{}, ins, nil, nil, Config{})
	o.Start(context.Background())
	o.Cancel()

	if !rec.aborted {
		t.Error("cancel during recording must abort the capture")
	}
	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle", got)
	}
	if ins.insertCount() != 0 {
		t.Error("nothing may be inserted")
	}
}

func TestCancelDuringInsertionDropsSession(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: true}
	ins := &fakeInserter{release: make(chan struct{})}
	hist := &fakeHistory{}

	o := New(rec, tr, &fakeProcessor{}, ins, hist, nil, Config{})
	ctx := context.Background()

	o.Start(ctx)
	o.Stop(ctx)
	waitForPhase(t, o, PhaseInserting)

	// The paste is already running, cancel cannot take it back. The
	// session must still end discarded, not recorded as a success.
	o.Cancel()
	close(ins.release)
	o.Wait()

	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle after cancel", got)
	}
	if hist.count() != 0 {
		t.Error("cancelled session must not reach history")
	}
	if got := o.State().LastInserted; got != "" {
		t.Errorf("LastInserted = %q, want empty", got)
	}
	if ins.insertCount() != 1 {
		t.Errorf("inserts = %d, the running paste completes", ins.insertCount())
	}
}

func TestGenerationSessionCarriesContext(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "roher Text", ready: true}
	proc := &fakeProcessor{result: "feiner Text"}
	ins := &fakeInserter{}
	hist := &fakeHistory{recent: []string{"gestern", "vorgestern"}}
	scr := &fakeScreen{text: "Bildschirminhalt"}

	o := New(rec, tr, proc, ins, hist, scr, Config{
		Language:         textproc.LangDE,
		UseGeneration:    true,
		UseScreenContext: true,
		StylePrompt:      "knapp",
		TargetApp:        "Editor",
		RecentInputCount: 5,
	})
	runSession(t, o)

	proc.mu.Lock()
	opts := proc.gotOpts
	proc.mu.Unlock()
	if !opts.UseGeneration {
		t.Error("generation flag lost")
	}
	if opts.ScreenContext != "Bildschirminhalt" {
		t.Errorf("screen context = %q", opts.ScreenContext)
	}
	if opts.RecentInputs != "gestern\nvorgestern" {
		t.Errorf("recent inputs = %q", opts.RecentInputs)
	}
	if opts.StylePrompt != "knapp" {
		t.Errorf("style prompt = %q", opts.StylePrompt)
	}

	if len(ins.targets) != 1 || ins.targets[0] != "Editor" {
		t.Errorf("targets = %v", ins.targets)
	}
	hist.mu.Lock()
	e := hist.entries[0]
	hist.mu.Unlock()
	if !e.wasProcessed {
		t.Error("generation session must record wasProcessed")
	}
}

func TestInsertionProbablyFailed(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: true}
	ins := &fakeInserter{result: insert.Failed("kein Fokus")}

	var failedText, failedReason string
	o := New(rec, tr, &fakeProcessor{}, ins, nil, nil, Config{
		OnInsertFailed: func(text, reason string) {
			failedText, failedReason = text, reason
		},
	})
	runSession(t, o)

	// Done anyway, the text is recoverable from the clipboard
	if got := o.State().Phase; got != PhaseDone {
		t.Errorf("phase = %s, want done", got)
	}
	if len(ins.copied) != 1 || ins.copied[0] != "Text" {
		t.Errorf("clipboard fallback = %v", ins.copied)
	}
	if failedText != "Text" || failedReason != "kein Fokus" {
		t.Errorf("callback got (%q, %q)", failedText, failedReason)
	}
}

func TestTranscriptionErrorSetsErrorPhase(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{err: fmt.Errorf("model crashed"), ready: true}
	ins := &fakeInserter{}

	o := New(rec, tr, &fakeProcessor{}, ins, nil, nil, Config{})
	runSession(t, o)

	st := o.State()
	if st.Phase != PhaseError {
		t.Fatalf("phase = %s, want error", st.Phase)
	}
	if !strings.Contains(st.Err, "model crashed") {
		t.Errorf("err = %q", st.Err)
	}
	if ins.insertCount() != 0 {
		t.Error("failed session must not insert")
	}
}

func waitForPhase(t *testing.T, o *Orchestrator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State().Phase == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase = %s, want %s", o.State().Phase, want)
}

func TestStartPreparesModelThenRecords(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: false}
	prep := &fakePreparer{release: make(chan struct{})}
	ins := &fakeInserter{}

	o := New(rec, tr, &fakeProcessor{}, ins, nil, nil, Config{})
	o.SetPreparer(prep)

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := o.State().Phase; got != PhaseDownloading {
		t.Fatalf("phase = %s, want downloading", got)
	}
	if rec.IsRecording() {
		t.Fatal("capture must not start before the model is ready")
	}

	close(prep.release)
	waitForPhase(t, o, PhaseRecording)
	if !rec.IsRecording() {
		t.Fatal("capture must start once the model is ready")
	}

	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	o.Wait()
	if got := o.State().Phase; got != PhaseDone {
		t.Errorf("phase = %s, want done", got)
	}
	if ins.insertCount() != 1 {
		t.Errorf("inserts = %d, want 1", ins.insertCount())
	}
}

func TestStopWhileDownloadingAbandons(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: false}
	prep := &fakePreparer{release: make(chan struct{})}
	ins := &fakeInserter{}

	o := New(rec, tr, &fakeProcessor{}, ins, nil, nil, Config{})
	o.SetPreparer(prep)

	o.Start(context.Background())
	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := o.State().Phase; got != PhaseIdle {
		t.Fatalf("phase = %s, want idle", got)
	}

	// A late readiness signal must not start a recording
	close(prep.release)
	time.Sleep(50 * time.Millisecond)
	if rec.IsRecording() {
		t.Error("abandoned preparation must not start capture")
	}
	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle", got)
	}
}

func TestModelPrepareFailure(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &fakeTranscriber{text: "Text", ready: false}
	prep := &fakePreparer{err: fmt.Errorf("download failed")}

	o := New(rec, tr, &fakeProcessor{}, &fakeInserter{}, nil, nil, Config{})
	o.SetPreparer(prep)

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForPhase(t, o, PhaseError)
	if rec.IsRecording() {
		t.Error("failed preparation must not start capture")
	}
}

func TestModelNotReady(t *testing.T) {
	o := New(&fakeRecorder{}, &fakeTranscriber{ready: false}, &fakeProcessor{}, &fakeInserter{}, nil, nil, Config{})
	if err := o.Start(context.Background()); err != ErrModelNotReady {
		t.Fatalf("Start = %v, want ErrModelNotReady", err)
	}
	if got := o.State().Phase; got != PhaseError {
		t.Errorf("phase = %s, want error", got)
	}
}

func TestStopWithoutRecordingIgnored(t *testing.T) {
	o := New(&fakeRecorder{}, &fakeTranscriber{ready: true}, &fakeProcessor{}, &fakeInserter{}, nil, nil, Config{})
	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without recording = %v, want nil", err)
	}
	if got := o.State().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle", got)
	}
}

func TestPhaseStrings(t *testing.T) {
	if PhaseProcessing.String() != "processing" || PhaseError.String() != "error" {
		t.Error("phase names wrong")
	}
	if !PhaseRecording.IsBusy() || PhaseDone.IsBusy() || PhaseIdle.IsBusy() {
		t.Error("busy classification wrong")
	}
}
