// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pool manager activity.
type Metrics struct {
	locks           prometheus.Counter
	lockFailures    prometheus.Counter
	swaps           prometheus.Counter
	ticksCrossed    prometheus.Counter
	positionUpdates prometheus.Counter
	feeCollections  prometheus.Counter
}

// NewMetrics creates the counters under namespace and registers them with
// reg unless reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		locks:           counter("locks_total", "Number of locks opened"),
		lockFailures:    counter("lock_failures_total", "Number of locks that reverted"),
		swaps:           counter("swaps_total", "Number of swaps executed"),
		ticksCrossed:    counter("ticks_crossed_total", "Number of initialized ticks crossed by swaps"),
		positionUpdates: counter("position_updates_total", "Number of position updates"),
		feeCollections:  counter("fee_collections_total", "Number of fee collections"),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.locks,
		m.lockFailures,
		m.swaps,
		m.ticksCrossed,
		m.positionUpdates,
		m.feeCollections,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
