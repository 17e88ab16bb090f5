// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain, the ports and small utility libraries
// (uuid, errgroup, rate); adapters are injected by cmd/azurebridge.
package services
