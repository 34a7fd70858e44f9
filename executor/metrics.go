/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package executor

import (
	"dirpx.dev/rsx/metrics"
)

const (
	// QueueSizeGaugeLabel tracks the number of queued tasks.
	QueueSizeGaugeLabel = "queue_size"
	// InProgressGaugeLabel tracks the number of running tasks.
	InProgressGaugeLabel = "in_progress"
	// WorkersGaugeLabel tracks the number of live workers.
	WorkersGaugeLabel = "workers"
	// MetricsSubsystem groups the executor metrics.
	MetricsSubsystem = "executor"
)

// QueueSizeGauge tracks the number of tasks waiting for a worker.
var QueueSizeGauge = metrics.MustRegisterGauge(
	metrics.Namespace,
	MetricsSubsystem,
	QueueSizeGaugeLabel,
	"Number of tasks waiting for a worker.",
)

// InProgressGauge tracks the number of tasks currently running on a worker.
var InProgressGauge = metrics.MustRegisterGauge(
	metrics.Namespace,
	MetricsSubsystem,
	InProgressGaugeLabel,
	"Number of tasks currently running.",
)

// WorkersGauge tracks the number of live worker goroutines.
var WorkersGauge = metrics.MustRegisterGauge(
	metrics.Namespace,
	MetricsSubsystem,
	WorkersGaugeLabel,
	"Number of live executor workers.",
)
