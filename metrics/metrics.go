// Copyright 2013 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics provides general purpose counters and gauges, registered
// under slash-separated names ("downloader/tasks/dispatched") the way go-ethereum's
// subsystems instrument themselves.
package metrics

// Enabled is checked by code paths that would otherwise pay for metrics
// collection unconditionally; it is exported so a binary's main package can
// gate it behind a flag the way go-ethereum's --metrics does.
var Enabled = true
