//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"jdwpcheck/pkg/logging/glog"
	"jdwpcheck/pkg/proto"
)

type (
	RequestStat struct {
		hist      *hdrhistogram.Histogram
		total     time.Duration
		numErrors int64
	}

	// Statistics keeps a latency histogram per command. Safe for concurrent
	// use.
	Statistics struct {
		mtx      sync.Mutex
		all      RequestStat
		commands map[proto.Command]*RequestStat
		tmStart  time.Time
	}

	StatsData struct {
		AvgLatency  time.Duration
		MinLatency  time.Duration
		MaxLatency  time.Duration
		P50Latency  time.Duration
		P95Latency  time.Duration
		P99Latency  time.Duration
		NumRequests int64
		NumErrors   int64
	}
)

func newRequestStat() RequestStat {
	return RequestStat{hist: hdrhistogram.New(1, int64(3600*time.Second), 3)}
}

func (s *RequestStat) put(tm time.Duration, err error) {
	if err := s.hist.RecordValue(int64(tm)); err != nil {
		// counted at the ceiling so the request is not lost
		glog.Debugf("latency %v not recorded: %s", tm, err)
		s.hist.RecordValue(s.hist.HighestTrackableValue())
	}
	s.total += tm
	if err != nil {
		s.numErrors++
	}
}

func (s *RequestStat) stats() (stat StatsData) {
	stat.NumRequests = s.hist.TotalCount()
	stat.NumErrors = s.numErrors
	stat.MinLatency = time.Duration(s.hist.Min())
	stat.MaxLatency = time.Duration(s.hist.Max())
	stat.P50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.P95Latency = time.Duration(s.hist.ValueAtQuantile(95.))
	stat.P99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	if stat.NumRequests != 0 {
		stat.AvgLatency = s.total / time.Duration(stat.NumRequests)
	}
	return
}

func NewStatistics() *Statistics {
	return &Statistics{
		all:      newRequestStat(),
		commands: make(map[proto.Command]*RequestStat),
		tmStart:  time.Now(),
	}
}

func (s *Statistics) Put(cmd proto.Command, tm time.Duration, err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.all.put(tm, err)
	st, ok := s.commands[cmd]
	if !ok {
		rs := newRequestStat()
		st = &rs
		s.commands[cmd] = st
	}
	st.put(tm, err)
}

func (s *Statistics) GetNumRequests() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.all.hist.TotalCount()
}

// Get returns the summary for cmd, or for all commands when ok is false.
func (s *Statistics) Get(cmd proto.Command) (stat StatsData, ok bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if st, found := s.commands[cmd]; found {
		return st.stats(), true
	}
	return s.all.stats(), false
}

func (s *Statistics) Reset() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.all = newRequestStat()
	s.commands = make(map[proto.Command]*RequestStat)
	s.tmStart = time.Now()
}

func (s *Statistics) PrettyPrint(w io.Writer) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	usfunc := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}
	fmt.Fprintln(w, `
  average   | min        | max        |        50% |      95%   |      99%   |  requests  |   errors   | command
------------+------------+------------+------------+------------+------------+------------+------------+------------------------------`)
	wstatFunc := func(stat *StatsData, name string) {
		fmt.Fprintf(w, "%11s %12s %12s %12s %12s %12s %12d %12d   %s\n",
			usfunc(stat.AvgLatency), usfunc(stat.MinLatency), usfunc(stat.MaxLatency),
			usfunc(stat.P50Latency), usfunc(stat.P95Latency), usfunc(stat.P99Latency),
			stat.NumRequests, stat.NumErrors, name)
	}

	cmds := make([]proto.Command, 0, len(s.commands))
	for cmd := range s.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].Set != cmds[j].Set {
			return cmds[i].Set < cmds[j].Set
		}
		return cmds[i].Cmd < cmds[j].Cmd
	})
	for _, cmd := range cmds {
		stat := s.commands[cmd].stats()
		wstatFunc(&stat, cmd.String())
	}
	fmt.Fprintln(w,
		"------------+------------+------------+------------+------------+------------+------------+------------+------------------------------")
	all := s.all.stats()
	wstatFunc(&all, fmt.Sprintf("All (%s)", time.Since(s.tmStart).Round(time.Millisecond)))
}
