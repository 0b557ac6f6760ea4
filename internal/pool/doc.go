// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pool runs work items on a bounded set of worker processes and folds their exit
// codes into one status.
//
// Workers are separate OS processes. The orchestrator sends gob-encoded requests on the
// worker's file descriptor 3 and reads outcomes from descriptor 4, so worker stdout and stderr
// stay connected to the terminal. Results are folded in the order they arrive: the first
// nonzero code sticks. With AbortOnError the first failure stops dispatch and lets the items
// already running finish. An interrupt or any other fault terminates every worker.
package pool
