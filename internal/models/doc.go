// Package models defines domain entities and persistence interfaces for spotshuffle.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values decoded from the Spotify Web API
//   - [Track] : a track name with its ordered artist names
//   - [TrackPage] : one page of a playlist's tracks with the pagination cursor
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ShuffleRun] : one shuffle of a playlist, tracking status, page count and failure message
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
