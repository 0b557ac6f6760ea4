// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package forall runs one command in every selected project.
//
// Run resolves each project to a manifest.Descriptor in the orchestrating process, then hands
// one WorkItem per project to a pool of worker processes. A worker runs DoWork for every item it
// receives: it sets the REPO_* variables, changes into the project and runs the command, either
// on the inherited terminal or, with project headers, behind a "project <path>/" banner.
package forall
