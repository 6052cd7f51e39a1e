package client

import (
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
	"github.com/itiky/collaborate-mirror/storage"
)

// ErrNotStarted is returned for writes issued before the Client is started or after it was stopped.
var ErrNotStarted = errors.New("client is not started")

type (
	// Client keeps a local replica of the server store.
	// Replica listeners are dispatched to the Poster (the run loop), writes are forwarded to the server
	// and become visible once the replica is upgraded by polling.
	Client struct {
		sync.Mutex
		// Config
		id      model.ClientId // unique ID
		pollDur time.Duration  // replica update polling duration
		poster  Poster
		// State
		replica  *storage.Store
		version  int            // current replica version
		writesCh chan writeTask // writes to send in order
		//
		rpcClient *rpc.Client
		stopCh    chan interface{}
		doneCh    chan interface{}
	}

	// Poster delivers replica events and write completions to the caller's execution context.
	Poster interface {
		Post(fn func())
	}

	writeTask struct {
		req        model.OperationRequest
		onComplete remote.CompletionFunc
	}
)

// String implements the stringer interface.
func (c *Client) String() string {
	return fmt.Sprintf("Client (%d)", c.id)
}

// Root returns the replica root location (nil until started).
func (c *Client) Root() remote.Location {
	c.Lock()
	defer c.Unlock()

	if c.replica == nil {
		return nil
	}

	return c.replica.Root()
}

// Version returns the replica version.
func (c *Client) Version() int {
	c.Lock()
	defer c.Unlock()

	return c.version
}

// Write implements storage.Writer interface: queues the write request to be sent to the server.
func (c *Client) Write(req model.OperationRequest, onComplete remote.CompletionFunc) {
	c.Lock()
	stopCh := c.stopCh
	c.Unlock()

	if stopCh == nil {
		c.complete(onComplete, ErrNotStarted)
		return
	}

	select {
	case c.writesCh <- writeTask{req: req, onComplete: onComplete}:
	case <-stopCh:
		c.complete(onComplete, ErrNotStarted)
	}
}

// Start fetches the initial snapshot and starts the Client worker.
func (c *Client) Start() error {
	c.Lock()
	defer c.Unlock()

	if c.stopCh != nil {
		return nil
	}

	if err := c.initSnapshot(); err != nil {
		return fmt.Errorf("snapshot initialization: %w", err)
	}

	c.stopCh = make(chan interface{})
	c.doneCh = make(chan interface{})

	monitor.Start()
	go c.worker(c.stopCh)

	return nil
}

// Stop stops the Client worker and closes the connection. A stopped Client can not be restarted.
func (c *Client) Stop() {
	c.Lock()
	if c.stopCh == nil {
		c.Unlock()
		return
	}
	close(c.stopCh)
	c.stopCh = nil
	doneCh := c.doneCh
	c.Unlock()

	<-doneCh
	monitor.Stop()
}

// worker does the actual job.
func (c *Client) worker(stopCh chan interface{}) {
	logrus.Infof("%s: start", c.String())
	logrus.Infof("%s: pollDur: %v", c.String(), c.pollDur)
	defer close(c.doneCh)

	pollTicker := time.NewTicker(c.pollDur)
	defer pollTicker.Stop()

	for {
		select {
		case task := <-c.writesCh:
			// Send a write request
			err := c.sendWrite(task.req)
			if err != nil {
				logrus.Warnf("%s: sending write: %v", c.String(), err)
			}
			c.complete(task.onComplete, err)
		case <-pollTicker.C:
			// Update the local replica
			if err := c.pollUpdates(); err != nil {
				logrus.Errorf("%s: polling updates: %v", c.String(), err)
			}
		case <-stopCh:
			// Stop the client
			logrus.Infof("%s: stop", c.String())
			c.rpcClient.Close()
			return
		}
	}
}

func (c *Client) complete(onComplete remote.CompletionFunc, err error) {
	if onComplete == nil {
		return
	}
	c.poster.Post(func() { onComplete(err) })
}

// NewClient creates a new Client object.
func NewClient(id model.ClientId, pollDur time.Duration, serverUrl string, poster Poster) (*Client, error) {
	const (
		numOfRetries     = 120
		retryFallbackDur = 500 * time.Millisecond
		writesChSize     = 64
	)

	if id == 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "id")
	}
	if pollDur <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "pollDur")
	}
	if poster == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "poster")
	}

	c := Client{
		id:       id,
		pollDur:  pollDur,
		poster:   poster,
		writesCh: make(chan writeTask, writesChSize),
	}

	for retry := 0; retry < numOfRetries; retry++ {
		client, err := rpc.Dial("tcp", serverUrl)
		if err == nil {
			c.rpcClient = client
			break
		}

		var sysErr *os.SyscallError
		if errors.As(err, new(*net.OpError)) && errors.As(err, &sysErr) && sysErr.Err == syscall.ECONNREFUSED {
			time.Sleep(retryFallbackDur)
			continue
		}

		return nil, fmt.Errorf("rpc.Dial(%s): %w", serverUrl, err)
	}
	if c.rpcClient == nil {
		return nil, fmt.Errorf("RPC connection failed after %d retries with %v fallback", numOfRetries, retryFallbackDur)
	}

	return &c, nil
}
