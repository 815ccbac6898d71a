// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package controller implements the stock sync operation shared by the HTTP
// API and the cron job.
package controller
