// Copyright © 2018 One Concern

package waitpage

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageDesc = prometheus.NewDesc(
		"waitpage_stage_status",
		"Boot stages, by status: 1 for the current status of the stage.",
		[]string{"profile", "stage", "status"}, nil,
	)
	backupEnabledDesc = prometheus.NewDesc(
		"waitpage_backup_enabled",
		"1 when a backup restore is expected during boot.",
		nil, nil,
	)
	backupNodesDesc = prometheus.NewDesc(
		"waitpage_backup_nodes",
		"Custom nodes listed by the backup snapshot, by install status.",
		[]string{"status"}, nil,
	)
)

// Collector exports the boot state computed on each scrape
type Collector struct {
	m *Monitor
}

// NewCollector of boot state metrics
func NewCollector(m *Monitor) *Collector {
	return &Collector{m: m}
}

// Describe the metrics
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- stageDesc
	ch <- backupEnabledDesc
	ch <- backupNodesDesc
}

// Collect the metrics
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	state := c.m.State()
	profile := c.m.Profile().Name

	for _, stage := range state.Stages {
		for _, status := range []string{StagePending, StageActive, StageDone} {
			v := 0.0
			if stage.Status == status {
				v = 1
			}
			ch <- prometheus.MustNewConstMetric(stageDesc, prometheus.GaugeValue, v, profile, stage.ID, status)
		}
	}

	if state.Backup == nil {
		return
	}
	enabled := 0.0
	if state.Backup.Enabled {
		enabled = 1
	}
	ch <- prometheus.MustNewConstMetric(backupEnabledDesc, prometheus.GaugeValue, enabled)

	counts := map[string]float64{NodePending: 0, NodeInstalling: 0, NodeDone: 0, NodeFailed: 0}
	for _, node := range state.Backup.Nodes {
		counts[node.Status]++
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(backupNodesDesc, prometheus.GaugeValue, n, status)
	}
}
