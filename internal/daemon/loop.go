package daemon

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/standardbeagle/langd/internal/debug"
	"github.com/standardbeagle/langd/internal/errors"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/transport"
)

// runLoop is the Daemon Loop's fairness policy (spec.md §4.4): drain one
// queued message if any is already waiting; otherwise, if the backlog has
// something, process exactly one backlog path; otherwise block on the
// next message. The two selects below realize "is a message already
// readable" as Go's nearest equivalent — a non-blocking receive with
// default — since there is no portable way to peek a pipe's read buffer
// without actually reading from it.
func (d *Daemon) runLoop(msgCh <-chan transport.Envelope, readErrCh <-chan error) error {
	for {
		select {
		case env := <-msgCh:
			if done, err := d.dispatch(env); done {
				return err
			}
			continue
		case err := <-readErrCh:
			return d.terminate(err)
		default:
		}

		if d.backlogReady() {
			d.processOneBacklogPath()
			continue
		}

		select {
		case env := <-msgCh:
			if done, err := d.dispatch(env); done {
				return err
			}
		case err := <-readErrCh:
			return d.terminate(err)
		}
	}
}

func (d *Daemon) terminate(readErr error) error {
	derr := errors.NewTransportFailure(readErr)
	debug.LogTransport("transport failure, terminating: %v", derr)
	return derr
}

func (d *Daemon) backlogReady() bool {
	return d.state == StateInitialized && d.st != nil && !d.st.Backlog.IsEmpty()
}

// processOneBacklogPath drains one change-backlog path and reports the
// resulting Processing progress, then additionally reports Done if that
// path was the last one — per spec.md §8 Scenario 2, the final path's
// Processing{total,total} and the Done that follows it are both emitted,
// not one instead of the other.
func (d *Daemon) processOneBacklogPath() {
	d.st.Backlog.ProcessOne()
	processed, total := d.st.Backlog.Progress()
	d.writeNotification(processingNotification{Tag: "Processing", Processed: processed, Total: total})
	if d.st.Backlog.FinishIfEmpty() {
		d.writeNotification(doneNotification{Tag: "Done"})
	}
}

// dispatch handles one inbound envelope. The returned bool is true only
// when the loop must stop — a processed Shutdown or a response-writing
// failure — in which case err (possibly nil) is what Run should return.
func (d *Daemon) dispatch(env transport.Envelope) (stop bool, err error) {
	unblocked := time.Now()

	if d.verbose {
		debug.LogTransport("dispatch tag=%s id=%d", env.Tag, env.ID)
	}

	// Shutdown exits the loop from any state, including a failed
	// initialization — spec.md §4.6 requires it to "exit directly" rather
	// than fall into the FailedToInitialize short-circuit below.
	if env.Tag == "Shutdown" {
		return d.handleShutdownTag(env, unblocked)
	}

	if d.state == StateFailedToInitialize {
		d.respondErr(env.ID, unblocked, d.initErr.Error())
		return false, nil
	}

	if env.Tag == "Initialize" {
		return d.handleInitializeTag(env, unblocked)
	}

	if d.state == StateInitializing {
		d.respondErr(env.ID, unblocked, errors.NewWrongState(env.Tag, d.state.String()).Error())
		return false, nil
	}

	reg, ok := registry[env.Tag]
	if !ok {
		d.respondErr(env.ID, unblocked, fmt.Sprintf("unknown request tag %q", env.Tag))
		return false, nil
	}

	result, derr := reg.handler(d, env.Body)
	if derr != nil {
		if derr.Propagation() == errors.PropagateTerminate {
			return true, derr
		}
		if reg.expectsResponse {
			d.respondErr(env.ID, unblocked, derr.Error())
		}
		return false, nil
	}
	if reg.expectsResponse {
		d.respondOk(env.ID, unblocked, result)
	}
	return false, nil
}

func (d *Daemon) handleInitializeTag(env transport.Envelope, unblocked time.Time) (bool, error) {
	if d.state == StateInitialized {
		d.respondErr(env.ID, unblocked, errors.NewWrongState(env.Tag, d.state.String()).Error())
		return false, nil
	}

	var req initializeRequest
	if err := json.Unmarshal(env.Body, &req); err != nil {
		derr := errors.NewInitUncaught(err)
		d.state = StateFailedToInitialize
		d.initErr = derr
		d.respondErr(env.ID, unblocked, derr.Error())
		return false, nil
	}

	cfg := configFromInitializeRequest(req)
	state, numChanged, derr := Initialize(cfg, d.log, d.onWatchedFileChanged)
	if derr != nil {
		d.state = StateFailedToInitialize
		d.initErr = derr
		d.respondErr(env.ID, unblocked, derr.Error())
		return false, nil
	}

	if state.Watcher != nil {
		if err := state.Watcher.Start(d.runCtx); err != nil {
			debug.LogIndexing("failed to start filesystem watcher: %v", err)
		}
	}

	d.st = state
	d.state = StateInitialized
	d.respondOk(env.ID, unblocked, initializeResponse{NumChangedFilesToProcess: numChanged})

	// spec.md §8 Scenario 1: a backlog that starts empty still owes the
	// editor a single Done notification, even though runLoop's fairness
	// policy (backlogReady) never gets a turn to drain anything. A
	// non-empty backlog instead reaches Done through processOneBacklogPath
	// once the last path drains.
	if numChanged == 0 {
		d.writeNotification(doneNotification{Tag: "Done"})
	}
	return false, nil
}

func (d *Daemon) handleShutdownTag(env transport.Envelope, unblocked time.Time) (bool, error) {
	d.respondOk(env.ID, unblocked, struct{}{})
	if d.st != nil {
		_ = d.st.Close()
	}
	return true, nil
}

func (d *Daemon) respondOk(id uint64, unblocked time.Time, result any) {
	if id == 0 {
		return
	}
	msg, err := transport.Ok(id, responseEnvelope{UnblockedTime: unblocked.Format(time.RFC3339Nano), Result: result})
	if err != nil {
		msg = transport.Err(id, err.Error())
	}
	d.write(msg)
}

func (d *Daemon) respondErr(id uint64, unblocked time.Time, message string) {
	if id == 0 {
		return
	}
	d.write(transport.Err(id, message))
}

func (d *Daemon) writeNotification(body any) {
	msg, err := transport.Notify(body)
	if err != nil {
		return
	}
	d.write(msg)
}

func (d *Daemon) write(msg transport.OutMessage) {
	if err := d.writer.WriteMessage(msg); err != nil {
		debug.LogTransport("write failed for message id=%d: %v", msg.ID, err)
	}
}

func synthesizeFileChanged(p pathutil.Path) transport.Envelope {
	body, _ := json.Marshal(fileChangedRequest{Path: p.Rel})
	return transport.Envelope{Tag: "FileChanged", ID: 0, Body: body}
}
