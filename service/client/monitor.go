package client

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/sirupsen/logrus"
)

var monitor *Monitor

// Monitor keeps Client stats.
type Monitor struct {
	sync.Mutex
	writeReqDur   *movingaverage.MovingAverage
	updatesReqDur *movingaverage.MovingAverage
	writesSend    int
	updatesRecv   int
	stopCh        chan struct{}
}

// WritesSend updates the write requests metrics.
func (m *Monitor) WritesSend(count int, dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.writesSend += count
	m.writeReqDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// UpdatesReceived updates the replica upgrade metrics.
func (m *Monitor) UpdatesReceived(count int, dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.updatesRecv += count
	m.updatesReqDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// Start starts the Monitor worker.
func (m *Monitor) Start() {
	m.Lock()
	defer m.Unlock()

	if m.stopCh != nil {
		return
	}

	m.stopCh = make(chan struct{})
	go m.worker(m.stopCh)
}

// Stop stops the Monitor worker.
func (m *Monitor) Stop() {
	m.Lock()
	defer m.Unlock()

	if m.stopCh == nil {
		return
	}

	close(m.stopCh)
	m.stopCh = nil
}

// worker does the actual job.
func (m *Monitor) worker(stopCh chan struct{}) {
	const period = 5 * time.Second

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			// Stop the monitor
			return
		case <-ticker.C:
			// Print the report
			m.Lock()

			writesPerSec := float64(m.writesSend) / (float64(period) / float64(time.Second))
			updatesPerSec := float64(m.updatesRecv) / (float64(period) / float64(time.Second))
			logrus.Info("Monitor:")
			logrus.Infof("  - Writes / s:                %.2f", writesPerSec)
			logrus.Infof("  - Replica updates / s:       %.2f", updatesPerSec)
			logrus.Infof("  - Write request dur [ms]:    %.2f", m.writeReqDur.Avg())
			logrus.Infof("  - Updates request dur [ms]:  %.2f", m.updatesReqDur.Avg())
			m.writesSend = 0
			m.updatesRecv = 0

			m.Unlock()
		}
	}
}

func init() {
	monitor = &Monitor{
		writeReqDur:   movingaverage.New(3),
		updatesReqDur: movingaverage.New(3),
	}
}
