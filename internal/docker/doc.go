// Package docker provides Docker Engine API wrappers and containerized
// trainer execution for the train-sweep CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Foreground `docker run` execution of trainer invocations, one
//     container per run, with source and artifact bind mounts
//   - Container labels attributing each container to its sweep
//     (labels are the sole link between a container and a batch)
//   - Discovery and cleanup of leftover trainer containers
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
