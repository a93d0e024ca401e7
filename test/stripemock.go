// Package test provides testing utilities for the checkout service: a
// stripe-mock container and an in-process fake of the Stripe REST API.
package test

import (
	"context"
	"fmt"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// StripeMockPort is the HTTP port served by the stripe-mock container.
	StripeMockPort = "12111"
	// StripeMockImage is the official stripe-mock image.
	StripeMockImage = "stripe/stripe-mock:latest"
)

// StripeMockContainer is a running stripe-mock instance.
type StripeMockContainer struct {
	testcontainers.Container
	URL string
}

// StartStripeMockContainer starts a stripe-mock container and returns it
// together with the base URL of its HTTP API.
func StartStripeMockContainer(ctx context.Context) (*StripeMockContainer, error) {
	port := nat.Port(fmt.Sprintf("%s/tcp", StripeMockPort))
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        StripeMockImage,
				ExposedPorts: []string{string(port)},
				WaitingFor:   wait.ForListeningPort(port),
			},
			Started: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to start stripe-mock container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return nil, err
	}
	return &StripeMockContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, mapped.Port()),
	}, nil
}
