package server

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/sirupsen/logrus"
)

var monitor *Monitor

// Monitor keeps StoreService stats.
type Monitor struct {
	sync.Mutex
	opsHandled    int
	updatesServed int
	updatesReqDur *movingaverage.MovingAverage
	stopCh        chan struct{}
}

// OpsHandled increments the storage operations performed metric.
func (m *Monitor) OpsHandled(count int) {
	m.Lock()
	defer m.Unlock()

	m.opsHandled += count
}

// UpdatesRequestServed updates the service.GetUpdates handling duration metric.
func (m *Monitor) UpdatesRequestServed(dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.updatesReqDur.Add(float64(dur/time.Microsecond) / 1000.0)
	m.updatesServed++
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

			opsPerSec := float64(m.opsHandled) / (float64(period) / float64(time.Second))
			updatesPerSec := float64(m.updatesServed) / (float64(period) / float64(time.Second))
			logrus.Info("Monitor:")
			logrus.Infof("  - Store writes / s:         %.2f", opsPerSec)
			logrus.Infof("  - Updates requests / s:     %.2f", updatesPerSec)
			logrus.Infof("  - Updates request dur [ms]: %.2f", m.updatesReqDur.Avg())
			m.opsHandled = 0
			m.updatesServed = 0

			m.Unlock()
		}
	}
}

func init() {
	monitor = &Monitor{
		updatesReqDur: movingaverage.New(5),
	}
}
