package cli

import (
	"time"

	"jdwpcheck/pkg/logging/glog"

	"jdwpcheck/pkg/proto"
	"jdwpcheck/pkg/util"
)

type PendingRequest struct {
	reqCtx       *RequestContext
	id           uint32
	timeSent     time.Time
	timeToExpire time.Time
}

type PendingResponseMap map[uint32]*PendingRequest

// PendingTracker is owned by the session loop and is not safe for
// concurrent use.
type PendingTracker struct {
	mapRequestsSent PendingResponseMap
	pendingQueue    []*PendingRequest
	responseTimer   *util.TimerWrapper
	requestTimeout  time.Duration
}

func newPendingTracker(requestTimeout time.Duration) *PendingTracker {
	return &PendingTracker{
		mapRequestsSent: make(PendingResponseMap),
		responseTimer:   util.NewTimerWrapper(requestTimeout),
		requestTimeout:  requestTimeout,
	}
}

func (p *PendingTracker) GetTimeoutCh() <-chan time.Time {
	return p.responseTimer.GetTimeoutCh()
}

func (p *PendingTracker) NumPending() int {
	return len(p.mapRequestsSent)
}

func (p *PendingTracker) IsPending(id uint32) bool {
	_, found := p.mapRequestsSent[id]
	return found
}

// OnRequestSent registers reqCtx under id. An id that is still pending is
// a CorrelationReuseError and nothing is registered.
func (p *PendingTracker) OnRequestSent(reqCtx *RequestContext, id uint32) error {
	if p.IsPending(id) {
		return &CorrelationReuseError{ID: id}
	}
	now := time.Now()
	reqCtx.timeSent = now
	pending := &PendingRequest{reqCtx: reqCtx, id: id, timeSent: now, timeToExpire: now.Add(p.requestTimeout)}
	p.pendingQueue = append(p.pendingQueue, pending)
	p.mapRequestsSent[id] = pending
	if p.responseTimer.IsStopped() {
		p.responseTimer.Reset(p.requestTimeout)
	}
	return nil
}

// OnTimeout fails every request whose deadline passed and rearms the timer
// for the oldest one left. The queue is in send order and all requests
// share one timeout, so the scan stops at the first live entry.
func (p *PendingTracker) OnTimeout(now time.Time) {
	p.responseTimer.Stop()
	sz := len(p.pendingQueue)
	i := 0
	for ; i < sz; i++ {
		pr := p.pendingQueue[i]
		if _, found := p.mapRequestsSent[pr.id]; !found {
			continue // already answered
		}
		if pr.timeToExpire.After(now) {
			p.responseTimer.ResetAt(pr.timeToExpire)
			break
		}
		cmd := pr.reqCtx.request.GetCommand()
		glog.Warningf("Timeout <- target: %s id=%d elapsed=%v", cmd, pr.id, now.Sub(pr.timeSent))
		pr.reqCtx.ReplyError(&TimeoutError{Op: cmd.String(), After: p.requestTimeout})
		delete(p.mapRequestsSent, pr.id)
	}
	p.pendingQueue = p.pendingQueue[i:]
}

// OnReplyReceived routes reply to the request with the same id. It reports
// false when no request is pending under that id.
func (p *PendingTracker) OnReplyReceived(reply *proto.Packet) bool {
	pending, found := p.mapRequestsSent[reply.ID]
	if !found {
		glog.Warningf("no pending request found. id=%d err=%s", reply.ID, reply.ErrorCode)
		return false
	}
	delete(p.mapRequestsSent, reply.ID)
	pending.reqCtx.Reply(reply)
	if len(p.mapRequestsSent) == 0 {
		p.responseTimer.Stop()
		p.pendingQueue = p.pendingQueue[:0]
	}
	return true
}

// ClearOnError fails every pending request with err.
func (p *PendingTracker) ClearOnError(err error) {
	glog.DebugDepth(1, err)
	p.responseTimer.Stop()
	for k, v := range p.mapRequestsSent {
		v.reqCtx.ReplyError(err)
		delete(p.mapRequestsSent, k)
	}
	p.pendingQueue = p.pendingQueue[:0]
}

func (p *PendingTracker) OnResponseReaderClosed(err error) {
	p.ClearOnError(err)
}
