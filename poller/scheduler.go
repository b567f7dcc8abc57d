//
// Copyright 2021 Rackspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/racker/rackspace-monitoring-storage/utils"
	log "github.com/sirupsen/logrus"
)

const (
	RefreshSpreadInMilliseconds = 30000
)

var ErrNilRefresher = errors.New("Refresher is nil")

// Refresher is anything the scheduler can refresh periodically.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context)
}

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	period  time.Duration
	timeout time.Duration
	// Spread bounds the random delay before the first refresh of each agent.
	Spread time.Duration

	mu      sync.Mutex
	agents  []Refresher
	started bool
	wg      sync.WaitGroup
}

func NewScheduler(period, timeout time.Duration) *Scheduler {
	s := &Scheduler{
		period:  period,
		timeout: timeout,
		Spread:  RefreshSpreadInMilliseconds * time.Millisecond,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

func (s *Scheduler) GetContext() (ctx context.Context, cancel context.CancelFunc) {
	return s.ctx, s.cancel
}

func (s *Scheduler) GetAgents() []Refresher {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make([]Refresher, len(s.agents))
	copy(agents, s.agents)
	return agents
}

// Register adds r to the schedule. Agents registered after Start begin refreshing immediately.
func (s *Scheduler) Register(r Refresher) error {
	if r == nil {
		return ErrNilRefresher
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents = append(s.agents, r)
	if s.started {
		s.launch(r)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	for _, r := range s.agents {
		s.launch(r)
	}
}

// Close cancels every refresh loop and waits for them to return.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) launch(r Refresher) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runAgent(r)
	}()
}

func (s *Scheduler) runAgent(r Refresher) {
	jitter := utils.Jitter(s.Spread)

	log.WithFields(log.Fields{
		"agent":  r.Name(),
		"jitter": jitter,
		"period": s.period,
	}).Debug("Starting agent")

	select {
	case <-time.After(jitter):
	case <-s.ctx.Done():
		return
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		s.refresh(r)

		select {
		case <-ticker.C:
		case <-s.ctx.Done():
			log.WithField("agent", r.Name()).Debug("Scheduler has been cancelled")
			return
		}
	}
}

func (s *Scheduler) refresh(r Refresher) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
	}
	r.Refresh(ctx)
}
