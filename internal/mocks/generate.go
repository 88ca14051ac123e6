// Package mocks provides mock implementations for testing the media job services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core ports.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	engine := mocks.NewMockEngine(ctrl)
//	engine.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(core.FetchResult{}, nil)
package mocks

// Generate mock for Engine interface from internal/core package.
// This creates MockEngine with methods for all Engine interface methods:
// Fetch
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=engine_mock.go github.com/target/mediafetch/internal/core Engine

// Generate mock for FileStore interface from internal/core package.
// This creates MockFileStore with methods for all FileStore interface methods:
// CreateJobDir, FirstFile, RemoveFile, RemoveJobDir
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=file_store_mock.go github.com/target/mediafetch/internal/core FileStore
